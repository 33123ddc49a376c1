package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/itinera/internal/extract"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/worker"
)

// slotResult is what one category slot leaves behind
type slotResult struct {
	category model.Category
	sections []model.Section
	err      error
}

func (r *slotResult) GetError() error { return r.err }

// fanOut runs one slot per tagged category, plus the fee slot, and collects
// them in slot order.
func (p *Pipeline) fanOut(ctx context.Context, in extract.Input) model.Outcome {
	logger := p.logger.With("req_id", model.RequestID(ctx))

	cats := in.Classification.Categories
	if in.Classification.FeeIncluded {
		cats = append(cats[:len(cats):len(cats)], model.CategoryFee)
	}

	jobs := make([]worker.Job, len(cats))
	for i, cat := range cats {
		jobs[i] = worker.JobFunc(func(ctx context.Context) worker.Result {
			return p.runSlot(ctx, cat, in)
		})
	}

	workers := p.config.Workers
	if workers <= 0 {
		workers = len(cats)
	}
	results := worker.Run(ctx, workers, jobs)

	outcome := model.Outcome{Tagged: len(in.Classification.Categories)}
	for i, res := range results {
		cat := cats[i]
		if err := res.GetError(); err != nil {
			logger.Warn("fanout.category.failed", "category", cat, "error", err)
			outcome.Failures = append(outcome.Failures, model.CategoryFailure{
				Category: cat,
				Err:      err,
				Reason:   err.Error(),
			})
			continue
		}
		sections := res.(*slotResult).sections
		if cat == model.CategoryFee {
			outcome.FeeSections = sections
			continue
		}
		outcome.Sections = append(outcome.Sections, sections...)
		outcome.Succeeded++
	}

	logger.Info("fanout.done",
		"tagged", outcome.Tagged,
		"succeeded", outcome.Succeeded,
		"fee", len(outcome.FeeSections) > 0,
	)
	return outcome
}

// runSlot runs one extractor under the category deadline
func (p *Pipeline) runSlot(ctx context.Context, cat model.Category, in extract.Input) *slotResult {
	res := &slotResult{category: cat}

	x, err := p.extractors.For(cat)
	if err != nil {
		res.err = err
		return res
	}

	if p.config.CategoryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.CategoryTimeout)
		defer cancel()
	}

	done := make(chan *slotResult, 1)
	go func() {
		out := &slotResult{category: cat}
		defer func() {
			if r := recover(); r != nil {
				out.err = fmt.Errorf("%s extractor panic: %v", cat, r)
				done <- out
			}
		}()
		out.sections, out.err = x.Extract(ctx, in)
		done <- out
	}()

	select {
	case out := <-done:
		if out.err == nil && len(out.sections) != x.SectionCount() {
			out.err = fmt.Errorf("%w: %s returned %d, want %d", model.ErrSectionCount, cat, len(out.sections), x.SectionCount())
		}
		if out.err != nil {
			out.sections = nil
		}
		return out
	case <-ctx.Done():
		res.err = fmt.Errorf("%s: %w", cat, ctx.Err())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.err = fmt.Errorf("%s: timed out after %s: %w", cat, p.config.CategoryTimeout, ctx.Err())
		}
		return res
	}
}
