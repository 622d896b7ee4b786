package translator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

// ErrMissingCredential is returned by constructors of backends that need an
// API key when none was supplied.
var ErrMissingCredential = errors.New("backend credential missing")

// Mode selects the output shape requested from the backend.
type Mode int

const (
	// ModeProse asks for plain narrative prose without any markup.
	ModeProse Mode = iota
	// ModeMarkup asks the backend to keep structural markup and [PHn]
	// markers intact.
	ModeMarkup
)

func (m Mode) String() string {
	if m == ModeMarkup {
		return "markup"
	}
	return "prose"
}

type TranslateRequest struct {
	Text            string             `json:"text"`
	SourceLang      string             `json:"source_lang"`
	TargetLang      string             `json:"target_lang"`
	Mode            Mode               `json:"mode"`
	Glossary        *glossary.Glossary `json:"-"`
	PreviousContext string             `json:"previous_context,omitempty"`
	Instructions    string             `json:"instructions,omitempty"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

// Succeeded reports whether the call produced usable output.
func (r *ServiceResult) Succeeded() bool {
	return r != nil && r.Error == "" && strings.TrimSpace(r.TranslatedText) != ""
}

// Backend is a single generative or MT translation service. Implementations
// make exactly one upstream call per Translate and never retry; retry,
// timeout and fallback policy belongs to the caller.
type Backend interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
}

// Sizer is implemented by backends that measure chunk budgets in their own
// units (tokens, bytes). Callers fall back to rune counts otherwise.
type Sizer interface {
	Size(text string) int
}

func displayLang(lang, fallback string) string {
	if lang == "" || lang == "auto" {
		return fallback
	}
	return lang
}
