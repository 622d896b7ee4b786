// Package consistency verifies that glossary terms found in a chunk's source
// text come back as their fixed target terms in the translation, and repairs
// near misses where it safely can.
//
// The enforcer never fails. It reports violations as a quality signal and
// returns the (possibly repaired) output. Results depend only on the inputs:
// glossary entries are visited in glossary order and candidate repairs are
// ranked by score, then by position.
package consistency

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

// DefaultVariantThreshold is the minimum similarity (0–1) for a word window
// in the output to be treated as a misspelling of an expected term.
const DefaultVariantThreshold = 0.8

// Violation records a glossary entry whose source term appears in the source
// text while its target term was missing from the backend output.
type Violation struct {
	Term     string `json:"term"`
	Expected string `json:"expected"`
	Found    string `json:"found,omitempty"` // variant located in the output, if any
	Repaired bool   `json:"repaired"`
}

// Result is the enforcer's output for one chunk.
type Result struct {
	Output     string
	Violations []Violation
}

// Enforcer checks and repairs terminology. The zero value is not usable; use
// New.
type Enforcer struct {
	threshold float64
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithVariantThreshold sets the similarity required for a variant repair.
// A threshold above 1 disables variant repair; case-insensitive repair still
// applies.
func WithVariantThreshold(threshold float64) Option {
	return func(e *Enforcer) {
		e.threshold = threshold
	}
}

func New(opts ...Option) *Enforcer {
	e := &Enforcer{threshold: DefaultVariantThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var wordRe = regexp.MustCompile(`\S+`)

// Enforce checks output against every glossary entry present in source.
//
// For each missing target term it records a Violation and tries, in order:
//  1. a case-insensitive occurrence, rewritten to the canonical casing
//  2. a close variant: a window of as many words as the target term whose
//     similarity reaches the threshold and that does not already hold
//     another glossary target
//
// Neither repair touches text inside an occurrence of another entry's target.
// If neither is found the output is left unchanged for that entry.
func (e *Enforcer) Enforce(source string, g *glossary.Glossary, output string) Result {
	res := Result{Output: output}

	matched := g.Match(source)
	for _, entry := range matched {
		if strings.Contains(res.Output, entry.Target) {
			continue
		}

		v := Violation{Term: entry.Source, Expected: entry.Target}

		guarded := guardedSpans(res.Output, otherTargets(g, entry.Target))
		if repaired, found, ok := repairCase(res.Output, entry.Target, guarded); ok {
			res.Output = repaired
			v.Found = found
			v.Repaired = true
		} else if repaired, found, ok := e.repairVariant(res.Output, entry.Target, guarded); ok {
			res.Output = repaired
			v.Found = found
			v.Repaired = true
		}

		res.Violations = append(res.Violations, v)
	}

	// A later repair can still rewrite a target that an earlier entry found
	// in unguarded text; report those entries as unrepaired.
	for _, entry := range matched {
		if strings.Contains(res.Output, entry.Target) || reported(res.Violations, entry.Source) {
			continue
		}
		res.Violations = append(res.Violations, Violation{Term: entry.Source, Expected: entry.Target})
	}

	return res
}

func reported(violations []Violation, term string) bool {
	for _, v := range violations {
		if v.Term == term {
			return true
		}
	}
	return false
}

// repairCase replaces every case-insensitive occurrence of expected that lies
// outside the guarded spans with the canonical form. found is the first
// variant replaced.
func repairCase(output, expected string, guarded [][]int) (string, string, bool) {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(expected))

	var b strings.Builder
	found := ""
	last := 0
	for _, m := range re.FindAllStringIndex(output, -1) {
		if overlapsAny(m[0], m[1], guarded) {
			continue
		}
		if found == "" {
			found = output[m[0]:m[1]]
		}
		b.WriteString(output[last:m[0]])
		b.WriteString(expected)
		last = m[1]
	}
	if found == "" {
		return output, "", false
	}
	b.WriteString(output[last:])
	return b.String(), found, true
}

func (e *Enforcer) repairVariant(output, expected string, guarded [][]int) (string, string, bool) {
	if e.threshold > 1 {
		return output, "", false
	}

	width := len(strings.Fields(expected))
	if width == 0 {
		return output, "", false
	}

	words := wordRe.FindAllStringIndex(output, -1)
	target := strings.ToLower(expected)

	bestScore := 0.0
	bestStart, bestEnd := -1, -1

	for i := 0; i+width <= len(words); i++ {
		start, end := words[i][0], words[i+width-1][1]
		start, end = trimPunct(output, start, end)
		if start >= end || overlapsAny(start, end, guarded) {
			continue
		}

		candidate := strings.ToLower(output[start:end])

		score := similarity(candidate, target)
		if score >= e.threshold && score > bestScore {
			bestScore = score
			bestStart, bestEnd = start, end
		}
	}

	if bestStart < 0 {
		return output, "", false
	}
	found := output[bestStart:bestEnd]
	return output[:bestStart] + expected + output[bestEnd:], found, true
}

// trimPunct narrows [start, end) so it excludes leading and trailing
// punctuation such as quotes, commas and full stops.
func trimPunct(s string, start, end int) (int, int) {
	span := s[start:end]
	trimmedLeft := strings.TrimLeftFunc(span, unicode.IsPunct)
	start += len(span) - len(trimmedLeft)
	trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsPunct)
	end = start + len(trimmed)
	return start, end
}

// otherTargets lists the glossary targets other than expected, leaving out
// those that expected itself contains.
func otherTargets(g *glossary.Glossary, expected string) []string {
	var out []string
	lower := strings.ToLower(expected)
	for _, t := range g.Targets() {
		if t == expected || strings.Contains(lower, strings.ToLower(t)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// guardedSpans returns the byte ranges of every case-insensitive occurrence
// of terms in output.
func guardedSpans(output string, terms []string) [][]int {
	var spans [][]int
	for _, t := range terms {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(t))
		spans = append(spans, re.FindAllStringIndex(output, -1)...)
	}
	return spans
}

func overlapsAny(start, end int, spans [][]int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j], prev[j-1], curr[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// similarity returns a score in [0, 1] (1 = identical).
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}
