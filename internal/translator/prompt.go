package translator

import (
	"fmt"
	"strings"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/placeholder"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/postprocess"
)

// BuildSystemPrompt constructs the system prompt shared by the LLM backends:
// the language instruction, the output-shape rules for req.Mode, one
// mandatory rule per glossary entry (in glossary order, so identical requests
// yield identical prompts) and an optional continuity context.
func BuildSystemPrompt(req TranslateRequest) string {
	var sb strings.Builder

	sourceLang := displayLang(req.SourceLang, "the detected source language")
	sb.WriteString(fmt.Sprintf("You are a professional literary translator of serialized web fiction. Translate the following text from %s to %s.\n", sourceLang, req.TargetLang))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no notes, no quotes around the text.")

	switch req.Mode {
	case ModeMarkup:
		sb.WriteString("\nPreserve all HTML tags and inline emphasis exactly where they appear; translate only the human-readable text. ")
		sb.WriteString(placeholder.InstructionHint())
	default:
		sb.WriteString("\nOutput plain narrative prose only: no HTML, no Markdown, no headings, no bullet points. Keep one paragraph per source paragraph, separated by a blank line.")
	}

	if req.Instructions != "" {
		sb.WriteString("\n")
		sb.WriteString(req.Instructions)
	}

	if req.Glossary.Len() > 0 {
		sb.WriteString("\n\nTERMINOLOGY (mandatory; use these exact translations):\n")
		for _, e := range req.Glossary.Entries() {
			sb.WriteString(fmt.Sprintf("  - Render %q as %q wherever it appears.\n", e.Source, e.Target))
		}
	}

	if req.PreviousContext != "" {
		sb.WriteString(fmt.Sprintf("\n\nCONTEXT (end of the previous passage, already translated; for continuity only, do NOT retranslate it):\n...%s", req.PreviousContext))
	}

	return sb.String()
}

// finishOutput cleans a raw LLM answer for req's mode.
func finishOutput(req TranslateRequest, raw string) string {
	out := postprocess.CleanFor(req.Text, raw)
	if req.Mode == ModeProse {
		out = postprocess.Prose(out)
	}
	return out
}
