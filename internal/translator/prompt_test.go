package translator

import (
	"strings"
	"testing"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

func TestBuildSystemPrompt_Glossary(t *testing.T) {
	g, err := glossary.New(map[string]string{
		"林宇":  "Lin Yu",
		"青云宗": "Azure Cloud Sect",
	})
	if err != nil {
		t.Fatal(err)
	}

	prompt := BuildSystemPrompt(TranslateRequest{SourceLang: "zh", TargetLang: "en", Glossary: g})

	sect := strings.Index(prompt, `"青云宗" as "Azure Cloud Sect"`)
	name := strings.Index(prompt, `"林宇" as "Lin Yu"`)
	if sect < 0 || name < 0 {
		t.Fatalf("missing glossary rules:\n%s", prompt)
	}
	if sect > name {
		t.Error("rules should follow glossary order, longest term first")
	}
	if !strings.Contains(prompt, "from zh to en") {
		t.Errorf("missing language instruction:\n%s", prompt)
	}
}

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	g, _ := glossary.New(map[string]string{"甲": "A", "乙": "B", "丙": "C"})
	req := TranslateRequest{TargetLang: "en", Glossary: g}
	if BuildSystemPrompt(req) != BuildSystemPrompt(req) {
		t.Error("identical requests must yield identical prompts")
	}
}

func TestBuildSystemPrompt_Modes(t *testing.T) {
	prose := BuildSystemPrompt(TranslateRequest{TargetLang: "en"})
	if !strings.Contains(prose, "plain narrative prose") {
		t.Errorf("prose mode should forbid markup:\n%s", prose)
	}
	if strings.Contains(prose, "TERMINOLOGY") {
		t.Error("no glossary block expected without a glossary")
	}
	if !strings.Contains(prose, "the detected source language") {
		t.Error("empty source language should fall back to detection")
	}

	markup := BuildSystemPrompt(TranslateRequest{TargetLang: "en", Mode: ModeMarkup})
	if !strings.Contains(markup, "[PHn]") {
		t.Errorf("markup mode should mention markers:\n%s", markup)
	}
}

func TestBuildSystemPrompt_ContextAndInstructions(t *testing.T) {
	prompt := BuildSystemPrompt(TranslateRequest{
		TargetLang:      "en",
		Instructions:    "Use British spelling.",
		PreviousContext: "and the gate closed behind him.",
	})
	if !strings.Contains(prompt, "Use British spelling.") {
		t.Error("instructions missing")
	}
	if !strings.Contains(prompt, "...and the gate closed behind him.") {
		t.Error("context missing")
	}
}

func TestFinishOutput(t *testing.T) {
	raw := "<think>x</think>Here is the translation: <p>Lin Yu</p>"

	if got := finishOutput(TranslateRequest{Text: "林宇"}, raw); got != "Lin Yu" {
		t.Errorf("prose: got %q", got)
	}
	if got := finishOutput(TranslateRequest{Text: "林宇", Mode: ModeMarkup}, raw); got != "<p>Lin Yu</p>" {
		t.Errorf("markup: got %q", got)
	}
}

func TestServiceResult_Succeeded(t *testing.T) {
	tests := []struct {
		name   string
		result *ServiceResult
		want   bool
	}{
		{"nil", nil, false},
		{"ok", &ServiceResult{TranslatedText: "x"}, true},
		{"blank", &ServiceResult{TranslatedText: "  "}, false},
		{"error", &ServiceResult{TranslatedText: "x", Error: "boom"}, false},
	}
	for _, tt := range tests {
		if got := tt.result.Succeeded(); got != tt.want {
			t.Errorf("%s: Succeeded() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
