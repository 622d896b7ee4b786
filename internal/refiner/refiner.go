// Package refiner is the optional second pass over a translated chunk: an LLM
// acting as a literary editor polishes the draft while keeping glossary
// renderings untouched.
package refiner

import (
	"context"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

// Draft is one translated chunk offered for polishing.
type Draft struct {
	SourceLang string
	TargetLang string
	Source     string
	Text       string
	// Glossary terms whose target renderings must survive verbatim.
	Glossary *glossary.Glossary
}

// Refiner reviews and improves a draft translation for literary quality.
type Refiner interface {
	Refine(ctx context.Context, d Draft) (string, error)
}
