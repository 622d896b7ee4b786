// Package chunker splits chapter text into ordered chunks that fit a size
// budget while keeping paragraphs and sentences whole. It also extracts a
// sliding-window context snippet (last N words) so a translator can keep
// continuity across chunk boundaries.
//
// Splitting is lossless: concatenating Chunk.Text in index order yields
// exactly Normalize(text). Separators (newlines, spaces after a sentence)
// stay attached to the chunk they follow.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultContextWords is the default number of words extracted by
	// ExtractContext for use as a sliding-window context.
	DefaultContextWords = 25

	// contextRunesPerWord caps ExtractContext output for scripts without
	// word spacing, where a whole chunk can look like a single word.
	contextRunesPerWord = 8
)

// Chunk is one ordered slice of a chapter.
type Chunk struct {
	Index  int
	Text   string
	Offset int // rune offset of Text within the normalized chapter
}

// SizeFunc measures a piece of text in budget units (characters, tokens, …).
// It must be monotonic: a longer prefix never measures smaller.
type SizeFunc func(string) int

// RuneCount is the default SizeFunc: unicode code points.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}

// Normalize converts CRLF and CR line endings to LF, applies Unicode NFC and
// trims outer whitespace. Split works on the normalized form.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(norm.NFC.String(text))
}

// Split cuts text into chunks whose trimmed content measures at most budget
// according to size (RuneCount when nil). Split points are chosen, in order
// of preference, at:
//  1. Paragraph (line) boundaries, packing whole paragraphs greedily
//  2. Sentence terminators (。！？… and . ! ? followed by whitespace)
//  3. A hard cut at the longest rune prefix that fits
//
// Empty input yields no chunks. A budget ≤ 0 is treated as unlimited.
func Split(text string, budget int, size SizeFunc) []Chunk {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	if size == nil {
		size = RuneCount
	}

	fits := func(s string) bool {
		return size(strings.TrimSpace(s)) <= budget
	}

	if budget <= 0 || fits(normalized) {
		return []Chunk{{Index: 0, Text: normalized, Offset: 0}}
	}

	var pieces []string
	for _, para := range paragraphs(normalized) {
		if fits(para) {
			pieces = append(pieces, para)
			continue
		}
		for _, sentence := range sentences(para) {
			if fits(sentence) {
				pieces = append(pieces, sentence)
				continue
			}
			pieces = append(pieces, hardCut(sentence, fits)...)
		}
	}

	var chunks []Chunk
	offset := 0
	flush := func(s string) {
		chunks = append(chunks, Chunk{Index: len(chunks), Text: s, Offset: offset})
		offset += utf8.RuneCountInString(s)
	}

	current := ""
	for _, piece := range pieces {
		switch {
		case current == "":
			current = piece
		case fits(current + piece):
			current += piece
		default:
			flush(current)
			current = piece
		}
	}
	if current != "" {
		flush(current)
	}

	return chunks
}

// paragraphs splits text after every run of newlines. Each paragraph keeps
// its trailing newline run.
func paragraphs(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		j := i
		for j < len(text) && text[j] == '\n' {
			j++
		}
		out = append(out, text[start:j])
		start = j
		i = j - 1
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// sentences splits a paragraph after sentence-ending punctuation, keeping
// closing quotes and following whitespace with the sentence they end.
func sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isTerminator(r) {
			continue
		}
		j := i + 1
		for j < len(runes) && (isTerminator(runes[j]) || isClosingQuote(runes[j])) {
			j++
		}
		// "3.14" or "e.g" are not sentence ends.
		if isLatinTerminator(r) && j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		out = append(out, string(runes[start:j]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// hardCut splits text into the longest rune prefixes accepted by fits. Each
// piece holds at least one rune so the loop always progresses.
func hardCut(text string, fits func(string) bool) []string {
	runes := []rune(text)
	var out []string
	for len(runes) > 0 {
		lo, hi := 1, len(runes)
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if fits(string(runes[:mid])) {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		out = append(out, string(runes[:lo]))
		runes = runes[lo:]
	}
	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '…', '.', '!', '?':
		return true
	}
	return false
}

func isLatinTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', '」', '』', '）', ')', '》':
		return true
	}
	return false
}

// ExtractContext returns the last wordCount words of text, joined by a single
// space. It is intended for use as a sliding-window context snippet passed to
// LLM translators so they can maintain narrative continuity across chunks.
// If text has fewer words than wordCount, the entire text is returned.
// If wordCount ≤ 0, DefaultContextWords is used.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	context := strings.TrimSpace(text)
	if len(words) > wordCount {
		context = strings.Join(words[len(words)-wordCount:], " ")
	}

	maxRunes := wordCount * contextRunesPerWord
	if runes := []rune(context); len(runes) > maxRunes {
		context = string(runes[len(runes)-maxRunes:])
	}
	return context
}
