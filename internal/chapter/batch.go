package chapter

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

// Job is one chapter queued for TranslateBatch.
type Job struct {
	ChapterNumber int
	Text          string
}

// TranslateBatch translates independent chapters with at most concurrency
// in flight. Each chapter is still translated chunk by chunk in order, and
// all of them share the read-only glossary. Results are in job order. An
// invalid job aborts the batch; backend failures only mark that chapter's
// Result.
func (t *Translator) TranslateBatch(ctx context.Context, jobs []Job, g *glossary.Glossary, concurrency int) ([]*Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(jobs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			res, err := t.TranslateChapter(egCtx, job.Text, job.ChapterNumber, g)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
