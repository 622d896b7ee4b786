// Package glossary holds the per-novel terminology map used to keep proper
// nouns (characters, sects, ranks, techniques) rendered identically across
// chapters.
//
// A Glossary is immutable once built and is safe to share between goroutines
// without locking. Entries are kept in a fixed order, longest source term
// first, so every consumer (prompt construction, consistency checks) walks
// them the same way on every run.
package glossary

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidEntry is returned when a source or target term is blank.
	ErrInvalidEntry = errors.New("glossary: source and target terms must be non-empty")

	// ErrDuplicateTerm is returned when the same source term appears twice.
	ErrDuplicateTerm = errors.New("glossary: duplicate source term")
)

// Entry is a single source-term → target-term rule.
type Entry struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Glossary is an ordered, read-only set of entries.
type Glossary struct {
	entries []Entry
	index   map[string]string
}

// New builds a Glossary from a source → target map. Terms are trimmed; blank
// terms are rejected.
func New(terms map[string]string) (*Glossary, error) {
	entries := make([]Entry, 0, len(terms))
	for src, tgt := range terms {
		entries = append(entries, Entry{Source: src, Target: tgt})
	}
	return FromEntries(entries)
}

// FromEntries builds a Glossary from a list of entries. Unlike New it can
// report duplicate source terms.
func FromEntries(entries []Entry) (*Glossary, error) {
	g := &Glossary{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]string, len(entries)),
	}

	for _, e := range entries {
		src := strings.TrimSpace(e.Source)
		tgt := strings.TrimSpace(e.Target)
		if src == "" || tgt == "" {
			return nil, fmt.Errorf("%w: %q → %q", ErrInvalidEntry, e.Source, e.Target)
		}
		if _, dup := g.index[src]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTerm, src)
		}
		g.index[src] = tgt
		g.entries = append(g.entries, Entry{Source: src, Target: tgt})
	}

	sort.Slice(g.entries, func(i, j int) bool {
		li := utf8.RuneCountInString(g.entries[i].Source)
		lj := utf8.RuneCountInString(g.entries[j].Source)
		if li != lj {
			return li > lj
		}
		return g.entries[i].Source < g.entries[j].Source
	})

	return g, nil
}

// Len returns the number of entries.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Entries returns a copy of the entries in glossary order.
func (g *Glossary) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Lookup returns the target term for source.
func (g *Glossary) Lookup(source string) (string, bool) {
	if g == nil {
		return "", false
	}
	tgt, ok := g.index[source]
	return tgt, ok
}

// Targets returns every target term in glossary order.
func (g *Glossary) Targets() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.Target
	}
	return out
}

// Match returns the entries whose source term occurs in text, in glossary
// order.
//
// Matching is literal and longest-match-first: the longer terms claim their
// occurrences before shorter ones are considered, and an occurrence of a
// shorter term that lies entirely inside a claimed span does not count. With
// {"青云": ..., "青云宗": ...} the text "青云宗" therefore matches only
// "青云宗".
func (g *Glossary) Match(text string) []Entry {
	if g.Len() == 0 || text == "" {
		return nil
	}

	claimed := make([]bool, len(text))
	var matched []Entry

	for _, e := range g.entries {
		found := false
		for start := 0; start < len(text); {
			i := strings.Index(text[start:], e.Source)
			if i < 0 {
				break
			}
			begin := start + i
			end := begin + len(e.Source)
			if !spanClaimed(claimed, begin, end) {
				for k := begin; k < end; k++ {
					claimed[k] = true
				}
				found = true
			}
			start = begin + 1
		}
		if found {
			matched = append(matched, e)
		}
	}
	return matched
}

func spanClaimed(claimed []bool, begin, end int) bool {
	for k := begin; k < end; k++ {
		if !claimed[k] {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable hash of the glossary contents, suitable as
// part of a cache key. An empty or nil glossary hashes to the same value.
func (g *Glossary) Fingerprint() string {
	h := sha256.New()
	for _, e := range g.Entries() {
		h.Write([]byte(e.Source))
		h.Write([]byte{0})
		h.Write([]byte(e.Target))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
