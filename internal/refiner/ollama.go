package refiner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/postprocess"
)

// OllamaRefiner uses a local Ollama model as the literary editor.
type OllamaRefiner struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaRefiner creates a refiner backed by a local Ollama model. The
// caller's context bounds each request.
func NewOllamaRefiner(model, baseURL string) *OllamaRefiner {
	return &OllamaRefiner{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Refine returns the polished text, or the draft when the model answers
// with nothing usable.
func (r *OllamaRefiner) Refine(ctx context.Context, d Draft) (string, error) {
	reqBody := ollamaRequest{
		Model:   r.model,
		Prompt:  buildRefinementPrompt(d),
		Stream:  false,
		Options: map[string]interface{}{"temperature": 0.4},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal refinement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", r.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create refinement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refinement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refiner returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode refinement response: %w", err)
	}

	refined := postprocess.Prose(postprocess.CleanFor(d.Text, ollamaResp.Response))
	if refined == "" {
		return d.Text, nil
	}
	return refined, nil
}

func buildRefinementPrompt(d Draft) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an elite %s literary editor of translated web fiction.\n\n", d.TargetLang)
	fmt.Fprintf(&sb, "Rewrite the DRAFT %s translation below so it reads as natural, fluent %s prose. ", d.TargetLang, d.TargetLang)
	sb.WriteString("Keep every fact, every line of dialogue and the paragraph layout. If the draft is already good, return it unchanged.\n")

	if d.Glossary.Len() > 0 {
		sb.WriteString("\nFIXED NAMES AND TERMS (copy exactly, never rephrase):\n")
		for _, e := range d.Glossary.Match(d.Source) {
			fmt.Fprintf(&sb, "  - %s\n", e.Target)
		}
	}

	fmt.Fprintf(&sb, "\nORIGINAL (%s):\n%s\n", d.SourceLang, d.Source)
	fmt.Fprintf(&sb, "\nDRAFT (%s):\n%s\n", d.TargetLang, d.Text)
	fmt.Fprintf(&sb, "\nOutput ONLY the refined %s text as plain prose. No explanations, no headings, no markup.", d.TargetLang)

	return sb.String()
}
