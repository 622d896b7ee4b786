package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chapter"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/config"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadGlossaryFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json map", "g.json", `{"林羽": "Lin Yu", "青云宗": "Azure Cloud Sect"}`},
		{"json list", "g.json", `[{"source": "林羽", "target": "Lin Yu"}, {"source": "青云宗", "target": "Azure Cloud Sect"}]`},
		{"yaml map", "g.yaml", "林羽: Lin Yu\n青云宗: Azure Cloud Sect\n"},
		{"yaml list", "g.yml", "- source: 林羽\n  target: Lin Yu\n- source: 青云宗\n  target: Azure Cloud Sect\n"},
		{"csv with header", "g.csv", "source,target\n林羽,Lin Yu\n青云宗,Azure Cloud Sect\n"},
		{"csv", "g.csv", "林羽,Lin Yu\n青云宗,Azure Cloud Sect,note\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := readGlossaryFile(writeTemp(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			g, err := glossary.FromEntries(entries)
			if err != nil {
				t.Fatalf("invalid entries: %v", err)
			}
			if g.Len() != 2 {
				t.Fatalf("expected 2 entries, got %d", g.Len())
			}
			if tgt, _ := g.Lookup("青云宗"); tgt != "Azure Cloud Sect" {
				t.Errorf("unexpected target %q", tgt)
			}
		})
	}
}

func TestReadGlossaryFile_Errors(t *testing.T) {
	if _, err := readGlossaryFile(writeTemp(t, "g.txt", "林羽=Lin Yu")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := readGlossaryFile(writeTemp(t, "g.csv", "林羽\n")); err == nil {
		t.Error("expected error for single-column CSV")
	}
	if _, err := readGlossaryFile(writeTemp(t, "g.json", `"just a string"`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := readGlossaryFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveGlossary(t *testing.T) {
	ctx := context.Background()

	g, err := resolveGlossary(ctx, nil, "", "")
	if err != nil || g.Len() != 0 {
		t.Fatalf("expected empty glossary, got %v (%v)", g, err)
	}

	db, err := openStorePath(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.AddGlossaryTerm(ctx, "nine-suns", "林羽", "Lin Yu"); err != nil {
		t.Fatal(err)
	}

	g, err = resolveGlossary(ctx, db, "nine-suns", "")
	if err != nil || g.Len() != 1 {
		t.Fatalf("expected stored glossary, got %v (%v)", g, err)
	}

	file := writeTemp(t, "g.json", `{"长老": "Elder", "天剑": "Heaven Sword"}`)
	g, err = resolveGlossary(ctx, db, "nine-suns", file)
	if err != nil || g.Len() != 2 {
		t.Fatalf("file should override store, got %v (%v)", g, err)
	}
	if _, ok := g.Lookup("林羽"); ok {
		t.Error("stored term should not be merged into a file glossary")
	}
}

func TestBuildBackend(t *testing.T) {
	cfg := &config.Config{
		Backend: config.BackendConfig{
			ProviderConfig: config.ProviderConfig{Provider: "openrouter", APIKey: "k", BaseURL: "http://localhost:1", Model: "m"},
			Fallback: []config.ProviderConfig{
				{Provider: "ollama", BaseURL: "http://localhost:2", Model: "qwen"},
			},
		},
		Retry: config.RetryConfig{MaxAttempts: 1},
	}

	orch, cleanup, err := buildBackend(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	if got := orch.Name(); got != "openrouter>ollama" {
		t.Errorf("unexpected chain %q", got)
	}

	cfg.Backend.Provider = "babelfish"
	if _, _, err := buildBackend(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestWriteChapter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ch1.en.txt")

	failed := &chapter.Result{ChapterNumber: 1, TranslatedText: "Lin Yu bowed.", State: chapter.StateFailed}
	if err := writeChapter(path, failed); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed chapter must not be published")
	}
	if data, err := os.ReadFile(path + ".partial"); err != nil || string(data) != "Lin Yu bowed." {
		t.Errorf("expected partial output, got %q (%v)", data, err)
	}

	ok := &chapter.Result{ChapterNumber: 1, TranslatedText: "Lin Yu bowed.", Success: true, State: chapter.StateAssembled}
	if err := writeChapter(path, ok); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "Lin Yu bowed." {
		t.Errorf("unexpected output %q", data)
	}
}
