package chapter

import (
	"context"
	"strings"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/placeholder"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/translator"
)

// TranslateDescription translates a short HTML summary in a single call,
// keeping its markup. It never fails: on any backend problem, or when the
// answer lost markup, the original html is returned so publication is not
// blocked. g may be nil; when given, its terms are requested and enforced.
func (t *Translator) TranslateDescription(ctx context.Context, html string, g *glossary.Glossary) string {
	if strings.TrimSpace(html) == "" {
		return html
	}

	protected, originals := placeholder.Protect(html)

	res, err := t.backend.Translate(ctx, translator.TranslateRequest{
		Text:         protected,
		SourceLang:   t.opts.SourceLang,
		TargetLang:   t.opts.TargetLang,
		Mode:         translator.ModeMarkup,
		Glossary:     g,
		Instructions: t.opts.Instructions,
	})
	if err != nil || !res.Succeeded() {
		t.logf("description: keeping original, backend failed: %s", backendError(res, err))
		return html
	}

	out := res.TranslatedText
	if missing := placeholder.Validate(out, originals); len(missing) > 0 {
		t.logf("description: keeping original, %d markup marker(s) lost", len(missing))
		return html
	}
	out = placeholder.Restore(out, originals)

	if g.Len() > 0 {
		enforced := t.opts.Enforcer.Enforce(html, g, out)
		for _, v := range enforced.Violations {
			t.logf("description: %q missing expected %q (repaired: %v)", v.Term, v.Expected, v.Repaired)
		}
		out = enforced.Output
	}

	t.logf("description: translated (%s)", res.ServiceName)
	return out
}
