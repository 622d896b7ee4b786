// Package placeholder swaps spans that must survive translation untouched
// for numbered markers and puts them back afterwards.
//
// Protect guards structural markup (HTML tags, code) in descriptions with
// [PH0], [PH1], ... markers. ProtectTerms guards glossary terms for backends
// that cannot follow terminology instructions with [GT0], [GT1], ... markers
// that restore to the target rendering. The two namespaces are separate, so
// term markers can be added to text that already holds markup markers.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

var (
	reFencedCode  = regexp.MustCompile("(?s)```.*?```")
	reInlineCode  = regexp.MustCompile("`[^`]+`")
	reHTMLTag     = regexp.MustCompile(`<[^>]+>`)
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
	reTermMarker  = regexp.MustCompile(`\[GT(\d+)\]`)
)

func marker(i int) string {
	return fmt.Sprintf("[PH%d]", i)
}

func termMarker(i int) string {
	return fmt.Sprintf("[GT%d]", i)
}

// Protect replaces fenced code, inline code and HTML tags with markers in
// order of appearance. The returned slice holds the originals by index.
func Protect(text string) (string, []string) {
	var originals []string
	replace := func(match string) string {
		originals = append(originals, match)
		return marker(len(originals) - 1)
	}

	// Fenced blocks first so their backticks are not taken as inline code.
	text = reFencedCode.ReplaceAllStringFunc(text, replace)
	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)

	return text, originals
}

// ProtectTerms replaces every occurrence of a glossary source term with a
// marker whose restoration is the term's target. Matching is a single pass
// in glossary order, so a longer term wins over a shorter one at the same
// position. Occurrences of the same term share one marker.
func ProtectTerms(text string, g *glossary.Glossary) (string, []string) {
	entries := g.Entries()
	if len(entries) == 0 || text == "" {
		return text, nil
	}

	alts := make([]string, len(entries))
	for i, e := range entries {
		alts[i] = regexp.QuoteMeta(e.Source)
	}
	re := regexp.MustCompile(strings.Join(alts, "|"))

	var targets []string
	assigned := make(map[string]int)
	text = re.ReplaceAllStringFunc(text, func(match string) string {
		if i, ok := assigned[match]; ok {
			return termMarker(i)
		}
		target, _ := g.Lookup(match)
		targets = append(targets, target)
		assigned[match] = len(targets) - 1
		return termMarker(len(targets) - 1)
	})

	return text, targets
}

// Restore substitutes markup markers in text with originals[n]. Unknown
// indices are left as they are.
func Restore(text string, originals []string) string {
	return restore(rePlaceholder, text, originals)
}

// RestoreTerms substitutes the term markers from ProtectTerms with their
// target renderings.
func RestoreTerms(text string, targets []string) string {
	return restore(reTermMarker, text, targets)
}

func restore(re *regexp.Regexp, text string, originals []string) string {
	if len(originals) == 0 {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(match string) string {
		sub := re.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(originals) {
			return match
		}
		return originals[idx]
	})
}

// InstructionHint is appended to LLM prompts whenever markers are present.
func InstructionHint() string {
	return "Keep every [PHn] marker exactly as written: do not translate, move, or remove them."
}

// Validate returns the indices of markup markers that are absent from text.
func Validate(text string, originals []string) []int {
	return validate(marker, text, originals)
}

// ValidateTerms returns the indices of term markers that are absent from text.
func ValidateTerms(text string, targets []string) []int {
	return validate(termMarker, text, targets)
}

func validate(mark func(int) string, text string, originals []string) []int {
	var missing []int
	for i := range originals {
		if !strings.Contains(text, mark(i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
