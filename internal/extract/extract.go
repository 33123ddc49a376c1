// Package extract turns shared facts into the fixed screen sections of each booking category
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/itinera/internal/llm"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/rules"
	"github.com/shopspring/decimal"
)

// Input is everything an extractor reads. It is shared read-only across concurrent extractors.
type Input struct {
	Facts          model.Facts
	Classification model.Classification
	Enrichment     model.Enrichment
	FeeAmount      decimal.Decimal
}

// Extractor produces the sections of one category
type Extractor interface {
	// Category returns the category this extractor serves
	Category() model.Category

	// SectionCount returns how many sections a successful Extract yields
	SectionCount() int

	// Extract builds the category's sections from the shared input
	Extract(ctx context.Context, in Input) ([]model.Section, error)
}

// Set holds the extractors of every category, built over one rule document and provider
type Set struct {
	rules   *rules.Rules
	client  llm.Completer
	schemas map[model.Category]*schema
	logger  *slog.Logger
}

// NewSet compiles the output schemas and returns the extractor set
func NewSet(r *rules.Rules, client llm.Completer, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Set{rules: r, client: client, schemas: schemas, logger: logger}, nil
}

// For selects the extractor of a category
func (s *Set) For(cat model.Category) (Extractor, error) {
	switch cat {
	case model.CategoryFlight:
		return &flightExtractor{s}, nil
	case model.CategoryTour:
		return &tourExtractor{s}, nil
	case model.CategoryHotel:
		return &hotelExtractor{s}, nil
	case model.CategoryCruise:
		return &cruiseExtractor{s}, nil
	case model.CategoryInsurance:
		return &insuranceExtractor{s}, nil
	case model.CategoryRail:
		return &railExtractor{s}, nil
	case model.CategoryProfile:
		return &profileExtractor{s}, nil
	case model.CategoryFee:
		return &feeExtractor{s}, nil
	}
	return nil, fmt.Errorf("no extractor for category %q", cat)
}
