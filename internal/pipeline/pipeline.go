// Package pipeline runs one booking request from documents to a deliverable payload
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/itinera/internal/cache"
	"github.com/ppiankov/itinera/internal/classify"
	"github.com/ppiankov/itinera/internal/enrich"
	"github.com/ppiankov/itinera/internal/extract"
	"github.com/ppiankov/itinera/internal/llm"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/normalize"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/ppiankov/itinera/internal/worker"
	"golang.org/x/sync/errgroup"
)

// UnknownTraveller names a request whose facts carry no passenger
const UnknownTraveller = "Unknown"

// Normalizer turns documents into facts
type Normalizer interface {
	Normalize(ctx context.Context, docs []model.Document) (model.Facts, error)
}

// Classifier identifies vendor and categories
type Classifier interface {
	Classify(ctx context.Context, facts model.Facts, hints classify.Hints) model.Classification
}

// Enricher computes the shared per-request context
type Enricher interface {
	Enrich(ctx context.Context, facts model.Facts) model.Enrichment
}

// Extractors resolves the extractor for a category
type Extractors interface {
	For(cat model.Category) (extract.Extractor, error)
}

// Components are the stages a Pipeline runs
type Components struct {
	Normalizer Normalizer
	Classifier Classifier
	Enricher   Enricher
	Extractors Extractors
	Limiter    *worker.Limiter // Runs the pacing delay; nil creates an unlimited one
}

// Pipeline orchestrates the complete request flow
type Pipeline struct {
	normalizer Normalizer
	classifier Classifier
	enricher   Enricher
	extractors Extractors
	limiter    *worker.Limiter
	config     model.PipelineConfig
	logger     *slog.Logger
}

// Report is the full result of one request. Only Payload crosses the delivery boundary.
type Report struct {
	RequestID     string
	TravellerName string
	VendorName    string
	Categories    []model.Category
	Outcome       model.Outcome
	Payload       model.Payload
}

// New creates a pipeline from its stages
func New(c Components, cfg model.PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Limiter == nil {
		c.Limiter = worker.NewLimiter(0, 1)
	}
	return &Pipeline{
		normalizer: c.Normalizer,
		classifier: c.Classifier,
		enricher:   c.Enricher,
		extractors: c.Extractors,
		limiter:    c.Limiter,
		config:     cfg,
		logger:     logger,
	}
}

// FromConfig wires every stage from the runtime configuration and rule document
func FromConfig(cfg model.Config, r *rules.Rules, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		return nil, errors.New("no text-understanding provider configured")
	}

	limiter := worker.NewLimiter(0, 1)
	if cfg.LLM.RequestsPerSecond > 0 {
		limiter.SetRate("llm:"+provider.Name(), cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	}
	client := llm.NewClient(provider, limiter, llm.RetryPolicyFromModel(cfg.Retry), logger)

	var fallback llm.Completer
	if cfg.Pipeline.ClassifierLLM {
		fallback = client
	}

	var source enrich.RateSource
	if cfg.Rates.Enabled {
		source = enrich.NewCachedSource(
			enrich.NewFrankfurter(cfg.Rates, cfg.HTTP, limiter),
			cache.New(cfg.Rates.CacheDir, cfg.Rates.CacheTTL),
			cfg.Rates.CacheTTL,
		)
	}

	extractors, err := extract.NewSet(r, client, logger)
	if err != nil {
		return nil, fmt.Errorf("extractors: %w", err)
	}

	return New(Components{
		Normalizer: normalize.New(client, logger),
		Classifier: classify.New(r, fallback, logger),
		Enricher:   enrich.New(source, cfg.Rates.TargetCurrency, r.CurrencyLabels, enrich.WithLogger(logger)),
		Extractors: extractors,
		Limiter:    limiter,
	}, cfg.Pipeline, logger), nil
}

// Process runs normalize, classify, enrich with pacing, fan-out and assembly.
// It never returns an error: every failure ends as an error payload.
func (p *Pipeline) Process(ctx context.Context, req model.Request) *Report {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx = model.WithRequestID(ctx, req.ID)
	logger := p.logger.With("req_id", req.ID)
	start := time.Now()

	report := &Report{RequestID: req.ID, TravellerName: UnknownTraveller}

	// 1. Normalize
	facts, err := p.normalizer.Normalize(ctx, req.Documents)
	if err != nil {
		logger.Error("pipeline.normalize.failed", "error", err)
		report.Payload = model.ErrorPayload(err)
		return report
	}
	if name, ok := facts.First(normalize.PassengerLabel); ok {
		report.TravellerName = name
	}
	logger.Info("pipeline.normalize.done", "facts", len(facts), "traveller", report.TravellerName)

	// 2. Classify
	cls := p.classifier.Classify(ctx, facts, classify.Hints{
		Vendor:      req.VendorHint,
		BookingType: req.BookingTypeHint,
		FeeAmount:   req.FeeAmount,
	})
	report.VendorName = cls.VendorName
	report.Categories = cls.Categories

	// 3. Enrich while the pacing delay runs
	var enrichment model.Enrichment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		enrichment = p.enricher.Enrich(gctx, facts)
		return nil
	})
	g.Go(func() error {
		return p.limiter.WaitWithDelay(gctx, "pace", p.config.PacingDelay)
	})
	if err := g.Wait(); err != nil {
		logger.Error("pipeline.pacing.failed", "error", err)
		report.Payload = model.ErrorPayload(err)
		return report
	}

	// 4. Fan out
	report.Outcome = p.fanOut(ctx, extract.Input{
		Facts:          facts,
		Classification: cls,
		Enrichment:     enrichment,
		FeeAmount:      req.FeeAmount,
	})

	// 5. Assemble
	payload, err := Assemble(report.Outcome)
	if err != nil {
		logger.Warn("pipeline.assemble.error", "error", err)
	}
	report.Payload = payload

	logger.Info("pipeline.done",
		"status", payload.Status,
		"vendor", report.VendorName,
		"sections", len(payload.Sections),
		"failed", len(report.Outcome.Failures),
		"duration", time.Since(start),
	)
	return report
}
