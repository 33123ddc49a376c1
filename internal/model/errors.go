package model

import "errors"

// Sentinel errors shared across the pipeline
var (
	ErrNormalization       = errors.New("normalization failed")
	ErrNoFacts             = errors.New("no facts extracted")
	ErrNoCategories        = errors.New("no booking categories detected")
	ErrAllCategoriesFailed = errors.New("all booking categories failed")
	ErrMalformedOutput     = errors.New("malformed structured output")
	ErrMissingRule         = errors.New("missing rule table entry")
	ErrUnsupportedMedia    = errors.New("unsupported document media")
	ErrUnsupportedPart     = errors.New("provider cannot read document parts")
	ErrSectionCount        = errors.New("unexpected section count")
)

// PublicMessage maps an error to the fixed text allowed across the delivery boundary
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNormalization), errors.Is(err, ErrNoFacts), errors.Is(err, ErrUnsupportedMedia):
		return "document could not be normalized"
	case errors.Is(err, ErrNoCategories):
		return "no booking categories detected"
	case errors.Is(err, ErrAllCategoriesFailed):
		return "all booking categories failed"
	default:
		return "processing failed"
	}
}
