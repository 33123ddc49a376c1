package model

import (
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// Media is the coarse kind of an input document
type Media string

const (
	MediaPDF     Media = "pdf"
	MediaEmail   Media = "email"
	MediaText    Media = "text"
	MediaZip     Media = "zip"
	MediaUnknown Media = ""
)

// Document is one raw input file
type Document struct {
	Name      string `json:"name" yaml:"name"`
	MediaType string `json:"media_type,omitempty" yaml:"media_type,omitempty"` // MIME type if known
	Data      []byte `json:"-" yaml:"-"`
}

// Media resolves the document kind from its MIME type, falling back to the file extension
func (d Document) Media() Media {
	return DetectMedia(d.Name, d.MediaType)
}

// DetectMedia resolves a document kind from a file name and MIME type
func DetectMedia(name, mediaType string) Media {
	mt := strings.ToLower(mediaType)
	switch {
	case strings.Contains(mt, "pdf"):
		return MediaPDF
	case strings.Contains(mt, "rfc822"):
		return MediaEmail
	case strings.Contains(mt, "zip"):
		return MediaZip
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaPDF
	case ".eml":
		return MediaEmail
	case ".zip":
		return MediaZip
	case ".md", ".txt", ".text", ".markdown":
		return MediaText
	}

	if strings.HasPrefix(mt, "text/") {
		return MediaText
	}
	return MediaUnknown
}

// Request is everything intake hands to the pipeline for one booking
type Request struct {
	ID              string          `json:"id"`
	VendorHint      string          `json:"vendor_hint,omitempty"`
	BookingTypeHint string          `json:"booking_type_hint,omitempty"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	CallbackURL     string          `json:"callback_url,omitempty"`
	Documents       []Document      `json:"documents"`
}
