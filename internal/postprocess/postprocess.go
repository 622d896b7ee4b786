// Package postprocess removes common LLM artifacts from translation output.
//
// Every LLM-backed backend runs its raw answer through CleanFor before the
// text is returned, so reasoning blocks, prompt echoes and stray code fences
// never reach the enforcer or the assembled chapter.
package postprocess

import (
	"regexp"
	"strings"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/markdown"
)

// Clean strips reasoning blocks, a wrapping code fence and a leading
// instruction echo, then trims the result.
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeCodeFence(text)
	text = removeInstructionEchoes(text)
	return strings.TrimSpace(text)
}

// CleanFor is Clean followed by removal of an outer quote pair, which only
// happens when source itself was not quoted. A chunk that is a single line
// of dialogue keeps its quotes.
func CleanFor(source, text string) string {
	text = Clean(text)
	if _, _, ok := quotePair(strings.TrimSpace(source)); ok {
		return text
	}
	return removeQuoteWrapping(text)
}

var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe catches a model cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

var codeFenceRe = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\n(.*?)\n?```$")

// removeCodeFence unwraps an answer that arrived entirely inside a fence.
func removeCodeFence(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// Anchored at the start and require a colon to avoid eating real prose.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]?\s+`),
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| your)? (?:refined |polished |translated |english )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished |english )?(?:translation|translated text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for i, re := range echoPatterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		// The courtesy prefix alone is not an echo.
		if i == 0 && !echoFollows(text[loc[1]:]) {
			continue
		}
		text = strings.TrimSpace(text[loc[1]:])
	}
	return text
}

func echoFollows(rest string) bool {
	for _, re := range echoPatterns[1:] {
		if re.MatchString(rest) {
			return true
		}
	}
	return false
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'「', '」'},
	{'『', '』'},
}

func quotePair(text string) (rune, rune, bool) {
	runes := []rune(text)
	if len(runes) < 2 {
		return 0, 0, false
	}
	first, last := runes[0], runes[len(runes)-1]
	for _, p := range quotePairs {
		if first == p[0] && last == p[1] {
			return first, last, true
		}
	}
	return 0, 0, false
}

// removeQuoteWrapping unwraps text only when it is one quoted span: the
// inner text holds neither quote character nor a paragraph break. Prose that
// merely opens and closes with dialogue is left alone.
func removeQuoteWrapping(text string) string {
	opening, closing, ok := quotePair(text)
	if !ok {
		return text
	}
	runes := []rune(text)
	inner := string(runes[1 : len(runes)-1])
	if strings.ContainsRune(inner, opening) || strings.ContainsRune(inner, closing) || strings.Contains(inner, "\n\n") {
		return text
	}
	return strings.TrimSpace(inner)
}

var (
	headingRe  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	extraGapRe = regexp.MustCompile(`\n{3,}`)
)

// Prose flattens any markup a model emitted in prose mode: HTML tags and
// entities, Markdown headings and strong emphasis. Paragraph gaps collapse
// to a single blank line.
func Prose(text string) string {
	if strings.ContainsRune(text, '<') || strings.ContainsRune(text, '&') {
		text = markdown.StripHTMLTags(text)
	}
	text = headingRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "$1$2")
	text = extraGapRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
