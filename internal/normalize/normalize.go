// Package normalize turns raw booking documents into an ordered LABEL: value fact list
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/itinera/internal/llm"
	"github.com/ppiankov/itinera/internal/model"
)

// Tag identifies normalizer calls in provider logs
const Tag = "normalize"

const instructions = `You read travel booking documents (invoices, e-tickets, confirmations, emails) and restate every fact they contain.

Output rules:
- One fact per line, formatted exactly as LABEL: value
- No prose, no headings, no tables, no commentary
- Copy values exactly as printed: amounts with their currency symbols, dates and times as written, codes unchanged
- Repeat a label once per occurrence, in document order (one line per flight leg field, per passenger, per room)
- Omit anything not present in the documents; never guess

Always capture, when present: vendor or supplier, booking reference, confirmation number, record locator, ticket numbers,
booking date, currency, base fare, taxes, fees, total, commission, deposit, final payment due date,
each flight leg (airline, flight number, fare class, fare basis, departure and arrival airport, city, date, time, seat),
hotel name, address, phone, check-in and check-out dates and times, room type, bedding,
cruise ship, cabin, deck, dining, sailing dates, tour or activity names and dates,
insurance policy number, plan and coverage dates, train numbers and stations,
traveller date of birth, citizenship, passport, phone, email, loyalty numbers and preferences.

Write each person as: Passenger: <full name>`

// Normalizer converts documents to facts with one provider call
type Normalizer struct {
	client llm.Completer
	logger *slog.Logger
}

// New creates a normalizer. logger may be nil.
func New(client llm.Completer, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{client: client, logger: logger}
}

// Normalize returns the fact sequence for a request's documents.
// Every failure wraps model.ErrNormalization.
func (n *Normalizer) Normalize(ctx context.Context, docs []model.Document) (model.Facts, error) {
	logger := n.logger.With("req_id", model.RequestID(ctx))
	start := time.Now()

	parts, err := Parts(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNormalization, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no documents", model.ErrNormalization)
	}
	parts = append(parts, llm.TextPart("Restate every fact from the documents above as LABEL: value lines."))

	resp, err := n.client.Complete(ctx, llm.Request{
		Tag:    Tag,
		System: instructions,
		Parts:  parts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNormalization, err)
	}

	facts := StandardizePassengers(ParseFacts(resp.Text))
	if len(facts) == 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrNormalization, model.ErrNoFacts)
	}

	logger.Info("pipeline.normalize.done",
		"documents", len(docs),
		"facts", len(facts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return facts, nil
}

// Parts converts documents into provider request parts in input order.
// An email contributes its body text plus one document part per PDF attachment.
func Parts(docs []model.Document) ([]llm.Part, error) {
	var parts []llm.Part
	for _, doc := range docs {
		switch doc.Media() {
		case model.MediaPDF:
			parts = append(parts, llm.DocumentPart(doc.Name, "application/pdf", doc.Data))
		case model.MediaEmail:
			email, err := parseEmail(doc.Data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", doc.Name, err)
			}
			if email.Body != "" || email.Subject != "" {
				parts = append(parts, llm.TextPart(emailText(doc.Name, email)))
			}
			for _, pdf := range email.PDFs {
				parts = append(parts, llm.DocumentPart(pdf.Name, "application/pdf", pdf.Data))
			}
		case model.MediaText:
			parts = append(parts, llm.TextPart(fmt.Sprintf("--- %s ---\n%s", doc.Name, strings.TrimSpace(string(doc.Data)))))
		default:
			return nil, fmt.Errorf("%s: %w", doc.Name, model.ErrUnsupportedMedia)
		}
	}
	return parts, nil
}

func emailText(name string, e *parsedEmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s ---\n", name)
	if e.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n\n", e.Subject)
	}
	b.WriteString(e.Body)
	return b.String()
}
