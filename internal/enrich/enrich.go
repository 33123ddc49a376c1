// Package enrich computes the per-request context every extractor shares: currency, rate and today
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
)

// Clock returns the current time
type Clock func() time.Time

// Enricher detects the document currency and looks up its conversion rate
type Enricher struct {
	source         RateSource // nil disables conversion
	target         string
	currencyLabels []string
	now            Clock
	logger         *slog.Logger
}

// Option configures an Enricher
type Option func(*Enricher)

// WithClock replaces time.Now
func WithClock(c Clock) Option {
	return func(e *Enricher) { e.now = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// New creates an enricher converting into target. source may be nil.
func New(source RateSource, target string, currencyLabels []string, opts ...Option) *Enricher {
	e := &Enricher{
		source:         source,
		target:         strings.ToUpper(target),
		currencyLabels: currencyLabels,
		now:            time.Now,
		logger:         slog.Default(),
	}
	if e.target == "" {
		e.target = "CAD"
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich never fails: a missing or failed rate leaves Rate nil
func (e *Enricher) Enrich(ctx context.Context, facts model.Facts) model.Enrichment {
	logger := e.logger.With("req_id", model.RequestID(ctx))

	out := model.Enrichment{
		Currency: e.DetectCurrency(facts),
		Target:   e.target,
		Today:    e.now(),
	}
	if !out.Foreign() {
		return out
	}
	if e.source == nil {
		logger.Debug("enrich.rate.disabled", "currency", out.Currency)
		return out
	}

	rate, err := e.source.Rate(ctx, out.Currency, e.target, out.Today)
	if err != nil {
		logger.Warn("enrich.rate.failed", "from", out.Currency, "to", e.target, "error", err)
		return out
	}
	out.Rate = rate

	logger.Info("enrich.rate.done",
		"from", rate.From,
		"to", rate.To,
		"rate", rate.Rate.String(),
		"as_of", rate.AsOf.Format(time.DateOnly),
	)
	return out
}

// DetectCurrency returns the ISO code carried by the first currency fact, or the target
func (e *Enricher) DetectCurrency(facts model.Facts) string {
	for _, label := range e.currencyLabels {
		for _, v := range facts.All(label) {
			if code, ok := format.CurrencyCode(v); ok {
				return code
			}
		}
	}
	return e.target
}
