package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ppiankov/itinera/internal/deliver"
	"github.com/ppiankov/itinera/internal/intake"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/pipeline"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/ppiankov/itinera/internal/worker"
)

// runtime is everything a command needs to take a manifest to delivery
type runtime struct {
	cfg      model.Config
	pipeline *pipeline.Pipeline
	loader   *intake.Loader
	deliver  deliver.Deliverer
	logger   *slog.Logger
}

func newRuntime(cfg model.Config, out io.Writer) (*runtime, error) {
	logger := slog.Default()

	r, err := rules.Load(cfg.Rules.File)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	p, err := pipeline.FromConfig(cfg, r, logger)
	if err != nil {
		return nil, err
	}

	// Document hosts get a polite per-host budget
	hosts := worker.NewLimiter(2, 2)

	var sink deliver.Deliverer = deliver.NewWriter(out)
	if cfg.Delivery.OutputDir != "" {
		sink = deliver.NewDir(cfg.Delivery.OutputDir)
	}

	return &runtime{
		cfg:      cfg,
		pipeline: p,
		loader:   intake.NewLoader(intake.NewFetcher(cfg.HTTP, hosts), logger),
		deliver:  deliver.Multi{sink, deliver.NewWebhook(cfg.Delivery, cfg.HTTP, logger)},
		logger:   logger,
	}, nil
}

// run processes one manifest and delivers its payload. Intake failures still
// deliver an error payload to the callback.
func (rt *runtime) run(ctx context.Context, m *intake.Manifest) (*pipeline.Report, error) {
	req, err := rt.loader.Request(ctx, m)
	if err != nil {
		report := &pipeline.Report{
			RequestID:     m.ID,
			TravellerName: pipeline.UnknownTraveller,
			Payload:       model.ErrorPayload(err),
		}
		if m.Callback != "" {
			if derr := rt.deliver.Deliver(ctx, rt.delivery(report, m.Callback)); derr != nil {
				rt.logger.Warn("deliver.failed", "error", derr)
			}
		}
		return report, fmt.Errorf("intake: %w", err)
	}

	report := rt.pipeline.Process(ctx, req)
	if err := rt.deliver.Deliver(ctx, rt.delivery(report, req.CallbackURL)); err != nil {
		return report, fmt.Errorf("deliver: %w", err)
	}
	return report, nil
}

func (rt *runtime) delivery(report *pipeline.Report, callback string) deliver.Delivery {
	return deliver.Delivery{
		RequestID:     report.RequestID,
		TravellerName: report.TravellerName,
		CallbackURL:   callback,
		Payload:       report.Payload,
	}
}
