// Package chapter turns untranslated chapter text into target-language text
// with consistent terminology.
//
// A chapter is split into chunks, each chunk is sent to the backend with the
// glossary embedded in its instructions, the answer is checked and repaired
// by the consistency enforcer, and the translated chunks are joined in order.
// The first chunk the backend fails on stops the chapter: the text gathered
// so far is returned with Success set to false so it is never published by
// mistake.
package chapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chunker"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/consistency"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/refiner"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/translator"
)

const (
	// DefaultChunkBudget suits generative backends with a few thousand
	// tokens of practical input per call.
	DefaultChunkBudget = 4000

	// Separator joins translated chunks. Chunks are cut on paragraph
	// boundaries, so a blank line restores the break.
	Separator = "\n\n"
)

var (
	// ErrConfiguration means the translator cannot be built; no translation
	// is attempted.
	ErrConfiguration = errors.New("chapter translator misconfigured")
	// ErrInvalidInput reports caller misuse, as opposed to a backend outage.
	ErrInvalidInput = errors.New("invalid chapter input")
)

// State is the position of a chapter translation in its lifecycle.
type State string

const (
	StatePending     State = "pending"
	StateChunking    State = "chunking"
	StateTranslating State = "translating"
	StateFailed      State = "failed"
	StateAssembled   State = "assembled"
)

// LogFunc receives one progress or failure line. A nil LogFunc is silent.
type LogFunc func(msg string)

// CachedChunk is a translated chunk kept for reuse across runs.
type CachedChunk struct {
	Key         string
	SourceLang  string
	TargetLang  string
	Source      string
	Translation string
	Service     string
}

// ChunkCache lets a rerun skip chunks that were already translated with the
// same languages and glossary. Implementations must be safe for concurrent
// use when TranslateBatch runs chapters in parallel.
type ChunkCache interface {
	GetChunk(ctx context.Context, key string) (string, bool, error)
	PutChunk(ctx context.Context, c CachedChunk) error
}

// OutputValidator rejects backend output that is not in the target language.
type OutputValidator interface {
	IsValid(text, targetLang string) (bool, error)
}

type Options struct {
	SourceLang string
	TargetLang string
	// ChunkBudget is the maximum chunk size in the units of Size. Zero
	// selects DefaultChunkBudget.
	ChunkBudget int
	// Size measures chunks. When nil the backend's translator.Sizer is used
	// if it has one, otherwise rune counts.
	Size chunker.SizeFunc
	// ContextWords is how much of the previous translated chunk is passed
	// on for continuity. Zero selects chunker.DefaultContextWords; a
	// negative value disables context.
	ContextWords int
	// Instructions are appended to every backend request.
	Instructions string

	Enforcer  *consistency.Enforcer
	Cache     ChunkCache
	Validator OutputValidator
	Refiner   refiner.Refiner
	Log       LogFunc
}

// Translator is safe for concurrent use; it holds no per-chapter state.
type Translator struct {
	backend translator.Backend
	opts    Options
}

func New(backend translator.Backend, opts Options) (*Translator, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrConfiguration)
	}
	if opts.ChunkBudget < 0 {
		return nil, fmt.Errorf("%w: negative chunk budget %d", ErrConfiguration, opts.ChunkBudget)
	}
	if opts.ChunkBudget == 0 {
		opts.ChunkBudget = DefaultChunkBudget
	}
	if opts.TargetLang == "" {
		opts.TargetLang = "en"
	}
	if opts.Size == nil {
		if s, ok := backend.(translator.Sizer); ok {
			opts.Size = s.Size
		} else {
			opts.Size = chunker.RuneCount
		}
	}
	if opts.ContextWords == 0 {
		opts.ContextWords = chunker.DefaultContextWords
	}
	if opts.Enforcer == nil {
		opts.Enforcer = consistency.New()
	}
	return &Translator{backend: backend, opts: opts}, nil
}

func (t *Translator) logf(format string, args ...interface{}) {
	if t.opts.Log != nil {
		t.opts.Log(fmt.Sprintf(format, args...))
	}
}

// Unit is the outcome of translating one chunk.
type Unit struct {
	ChunkIndex       int                     `json:"chunk_index"`
	SourceText       string                  `json:"source_text"`
	TranslatedText   string                  `json:"translated_text"`
	BackendSucceeded bool                    `json:"backend_succeeded"`
	Violations       []consistency.Violation `json:"violations,omitempty"`
	Service          string                  `json:"service,omitempty"`
	Latency          time.Duration           `json:"latency"`
	Cached           bool                    `json:"cached"`
	Error            string                  `json:"error,omitempty"`
}

// Result is a translated chapter. Success is true only when every chunk was
// translated; violations alone never clear it.
type Result struct {
	ChapterNumber  int    `json:"chapter_number"`
	TranslatedText string `json:"translated_text"`
	Success        bool   `json:"success"`
	State          State  `json:"state"`
	Units          []Unit `json:"units"`
	// FailureReason explains why Success is false.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Violations returns every unit's violations in chunk order.
func (r *Result) Violations() []consistency.Violation {
	var out []consistency.Violation
	for _, u := range r.Units {
		out = append(out, u.Violations...)
	}
	return out
}

// TranslateChapter translates text chunk by chunk, strictly in order. It
// returns an error only for invalid input; backend failures and
// cancellation surface as a Result with Success false holding whatever was
// translated before the failure.
func (t *Translator) TranslateChapter(ctx context.Context, text string, chapterNumber int, g *glossary.Glossary) (*Result, error) {
	if chapterNumber < 1 {
		return nil, fmt.Errorf("%w: chapter number %d", ErrInvalidInput, chapterNumber)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: glossary is required", ErrInvalidInput)
	}

	res := &Result{ChapterNumber: chapterNumber, State: StatePending}

	res.State = StateChunking
	chunks := chunker.Split(text, t.opts.ChunkBudget, t.opts.Size)
	if len(chunks) == 0 {
		t.logf("chapter %d: empty source, nothing to translate", chapterNumber)
		res.State = StateAssembled
		res.Success = true
		return res, nil
	}
	t.logf("chapter %d: %d chunk(s), %d glossary term(s) present", chapterNumber, len(chunks), len(g.Match(text)))

	res.State = StateTranslating
	var previous string
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			t.fail(res, fmt.Sprintf("cancelled before chunk %d: %v", c.Index+1, err))
			break
		}

		unit := t.translateChunk(ctx, c, g, previous)
		res.Units = append(res.Units, unit)

		if !unit.BackendSucceeded {
			t.fail(res, fmt.Sprintf("chunk %d/%d failed: %s", c.Index+1, len(chunks), unit.Error))
			break
		}
		t.logf("chapter %d: chunk %d/%d translated (%s, %s, %d violation(s))",
			chapterNumber, c.Index+1, len(chunks), unit.Service, unit.Latency.Round(time.Millisecond), len(unit.Violations))

		if t.opts.ContextWords > 0 {
			previous = chunker.ExtractContext(unit.TranslatedText, t.opts.ContextWords)
		}
	}

	res.TranslatedText = assemble(res.Units)
	if res.State == StateTranslating {
		res.State = StateAssembled
		res.Success = true
		if n := len(res.Violations()); n > 0 {
			t.logf("chapter %d: assembled with %d consistency violation(s)", chapterNumber, n)
		} else {
			t.logf("chapter %d: assembled", chapterNumber)
		}
	}

	return res, nil
}

func (t *Translator) fail(res *Result, reason string) {
	res.State = StateFailed
	res.Success = false
	res.FailureReason = reason
	t.logf("chapter %d: %s", res.ChapterNumber, reason)
}

func assemble(units []Unit) string {
	parts := make([]string, 0, len(units))
	for _, u := range units {
		if u.BackendSucceeded {
			parts = append(parts, u.TranslatedText)
		}
	}
	return strings.Join(parts, Separator)
}

func (t *Translator) translateChunk(ctx context.Context, c chunker.Chunk, g *glossary.Glossary, previous string) Unit {
	unit := Unit{ChunkIndex: c.Index, SourceText: c.Text}
	source := strings.TrimSpace(c.Text)
	key := t.cacheKey(source, g)

	draft, cached := t.lookup(ctx, key)
	if cached {
		unit.Cached = true
		unit.Service = "cache"
	} else {
		res, err := t.backend.Translate(ctx, translator.TranslateRequest{
			Text:            source,
			SourceLang:      t.opts.SourceLang,
			TargetLang:      t.opts.TargetLang,
			Mode:            translator.ModeProse,
			Glossary:        g,
			PreviousContext: previous,
			Instructions:    t.opts.Instructions,
		})
		if res != nil {
			unit.Service = res.ServiceName
			unit.Latency = res.Latency
		}
		if err != nil || !res.Succeeded() {
			unit.Error = backendError(res, err)
			return unit
		}
		draft = res.TranslatedText

		if t.opts.Validator != nil {
			if ok, verr := t.opts.Validator.IsValid(draft, t.opts.TargetLang); !ok {
				unit.Error = fmt.Sprintf("output rejected: %v", verr)
				return unit
			}
		}

		if t.opts.Refiner != nil {
			refined, rerr := t.opts.Refiner.Refine(ctx, refiner.Draft{
				SourceLang: t.opts.SourceLang,
				TargetLang: t.opts.TargetLang,
				Source:     source,
				Text:       draft,
				Glossary:   g,
			})
			if rerr != nil {
				t.logf("chunk %d: refinement skipped: %v", c.Index+1, rerr)
			} else {
				draft = refined
			}
		}
	}

	enforced := t.opts.Enforcer.Enforce(source, g, draft)
	unit.TranslatedText = enforced.Output
	unit.Violations = enforced.Violations
	unit.BackendSucceeded = true

	for _, v := range enforced.Violations {
		if v.Repaired {
			t.logf("chunk %d: %q rendered as %q, repaired to %q", c.Index+1, v.Term, v.Found, v.Expected)
		} else {
			t.logf("chunk %d: %q missing expected %q", c.Index+1, v.Term, v.Expected)
		}
	}

	if !cached {
		t.store(ctx, CachedChunk{
			Key:         key,
			SourceLang:  t.opts.SourceLang,
			TargetLang:  t.opts.TargetLang,
			Source:      source,
			Translation: unit.TranslatedText,
			Service:     unit.Service,
		})
	}

	return unit
}

func backendError(res *translator.ServiceResult, err error) string {
	switch {
	case res != nil && res.Error != "":
		return res.Error
	case err != nil:
		return err.Error()
	default:
		return "empty translation"
	}
}

func (t *Translator) lookup(ctx context.Context, key string) (string, bool) {
	if t.opts.Cache == nil {
		return "", false
	}
	text, ok, err := t.opts.Cache.GetChunk(ctx, key)
	if err != nil {
		t.logf("chunk cache lookup failed: %v", err)
		return "", false
	}
	return text, ok && strings.TrimSpace(text) != ""
}

func (t *Translator) store(ctx context.Context, c CachedChunk) {
	if t.opts.Cache == nil {
		return
	}
	if err := t.opts.Cache.PutChunk(ctx, c); err != nil {
		t.logf("chunk cache write failed: %v", err)
	}
}

// cacheKey identifies a chunk translation by languages, glossary contents
// and source text, so a glossary edit invalidates earlier translations.
func (t *Translator) cacheKey(source string, g *glossary.Glossary) string {
	h := sha256.New()
	for _, part := range []string{t.opts.SourceLang, t.opts.TargetLang, g.Fingerprint(), source} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
