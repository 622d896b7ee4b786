package glossary_test

import (
	"errors"
	"testing"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

func TestNew_RejectsBlankTerms(t *testing.T) {
	tests := []struct {
		name  string
		terms map[string]string
	}{
		{"blank source", map[string]string{"  ": "Lin Yu"}},
		{"blank target", map[string]string{"林羽": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := glossary.New(tt.terms)
			if !errors.Is(err, glossary.ErrInvalidEntry) {
				t.Errorf("expected ErrInvalidEntry, got %v", err)
			}
		})
	}
}

func TestFromEntries_Duplicate(t *testing.T) {
	_, err := glossary.FromEntries([]glossary.Entry{
		{Source: "林羽", Target: "Lin Yu"},
		{Source: "林羽 ", Target: "Lin Yv"},
	})
	if !errors.Is(err, glossary.ErrDuplicateTerm) {
		t.Errorf("expected ErrDuplicateTerm, got %v", err)
	}
}

func TestEntries_Order(t *testing.T) {
	g, err := glossary.New(map[string]string{
		"灵气":  "Spiritual Energy",
		"青云宗": "Azure Cloud Sect",
		"林羽":  "Lin Yu",
		"筑基期": "Foundation Establishment",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"筑基期", "青云宗", "林羽", "灵气"}
	got := g.Entries()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, src := range want {
		if got[i].Source != src {
			t.Errorf("entry %d: expected %q, got %q", i, src, got[i].Source)
		}
	}
}

func TestEntries_ReturnsCopy(t *testing.T) {
	g, _ := glossary.New(map[string]string{"林羽": "Lin Yu"})
	entries := g.Entries()
	entries[0].Target = "changed"

	if tgt, _ := g.Lookup("林羽"); tgt != "Lin Yu" {
		t.Errorf("glossary mutated through Entries copy: %q", tgt)
	}
	if g.Entries()[0].Target != "Lin Yu" {
		t.Error("entries slice shared with caller")
	}
}

func TestMatch(t *testing.T) {
	g, _ := glossary.New(map[string]string{
		"林羽":  "Lin Yu",
		"青云宗": "Azure Cloud Sect",
		"灵气":  "Spiritual Energy",
	})

	got := g.Match("林羽站在青云宗的山门前。")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(got), got)
	}
	if got[0].Source != "青云宗" || got[1].Source != "林羽" {
		t.Errorf("unexpected match order: %v", got)
	}
}

func TestMatch_LongestFirst(t *testing.T) {
	g, _ := glossary.New(map[string]string{
		"青云":  "Azure Cloud",
		"青云宗": "Azure Cloud Sect",
	})

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"only long term", "他来到青云宗。", []string{"青云宗"}},
		{"only short term", "青云之上。", []string{"青云"}},
		{"both separately", "青云宗在青云山。", []string{"青云宗", "青云"}},
		{"none", "山门前。", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Match(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i].Source != tt.want[i] {
					t.Errorf("match %d: expected %q, got %q", i, tt.want[i], got[i].Source)
				}
			}
		})
	}
}

func TestNilGlossary(t *testing.T) {
	var g *glossary.Glossary

	if g.Len() != 0 {
		t.Error("nil glossary should be empty")
	}
	if g.Entries() != nil {
		t.Error("nil glossary should have no entries")
	}
	if _, ok := g.Lookup("林羽"); ok {
		t.Error("nil glossary lookup should miss")
	}
	if g.Match("林羽") != nil {
		t.Error("nil glossary should match nothing")
	}

	empty, _ := glossary.New(nil)
	if g.Fingerprint() != empty.Fingerprint() {
		t.Error("nil and empty glossaries should share a fingerprint")
	}
}

func TestFingerprint(t *testing.T) {
	a, _ := glossary.New(map[string]string{"林羽": "Lin Yu", "青云宗": "Azure Cloud Sect"})
	b, _ := glossary.New(map[string]string{"青云宗": "Azure Cloud Sect", "林羽": "Lin Yu"})
	c, _ := glossary.New(map[string]string{"林羽": "Lin Yv", "青云宗": "Azure Cloud Sect"})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint should not depend on map order")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint should change with a target term")
	}
}
