package extract

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/llm"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schema is a compiled output schema with its source text, which doubles as the shape instruction
type schema struct {
	compiled *jsonschema.Schema
	source   string
}

var schemaCategories = []model.Category{
	model.CategoryFlight,
	model.CategoryTour,
	model.CategoryHotel,
	model.CategoryCruise,
	model.CategoryInsurance,
	model.CategoryRail,
	model.CategoryProfile,
	model.CategoryFee,
}

func compileSchemas() (map[model.Category]*schema, error) {
	out := make(map[model.Category]*schema, len(schemaCategories))
	for _, cat := range schemaCategories {
		name := string(cat) + ".json"
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", cat, err)
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", cat, err)
		}
		compiled, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", cat, err)
		}
		out[cat] = &schema{compiled: compiled, source: string(data)}
	}
	return out, nil
}

const baseInstructions = `You read travel booking facts and return one JSON object.

Rules:
- Use only values present in the facts. Never invent values.
- Leave out any field the facts do not give. Do not write null, N/A or empty strings.
- Copy dates, times and amounts as printed; they are normalized afterwards.
- Amounts are plain numbers in the document currency without currency symbols.
- Respond with the JSON object only, no commentary.

The object must validate against this JSON Schema:
`

// call describes one structured-output request
type call struct {
	category model.Category
	ruleSet  string
	guide    string // category-specific reading instructions
}

// understand asks the provider for the category's JSON shape and decodes it into out.
// Output that is not JSON or does not fit the schema is model.ErrMalformedOutput and is not retried.
func (s *Set) understand(ctx context.Context, c call, in Input, out any) error {
	sc, ok := s.schemas[c.category]
	if !ok {
		return fmt.Errorf("no output schema for %s", c.category)
	}
	if s.client == nil {
		return fmt.Errorf("extract %s: no text-understanding provider configured", c.category)
	}

	logger := s.logger.With("req_id", model.RequestID(ctx), "category", string(c.category))

	system := baseInstructions + sc.source
	if c.guide != "" {
		system = c.guide + "\n\n" + system
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "VENDOR: %s\n", in.Classification.VendorName)
	if c.ruleSet != "" {
		fmt.Fprintf(&prompt, "RULE SET: %s\n", c.ruleSet)
	}
	fmt.Fprintf(&prompt, "TODAY: %s\n", format.Date(in.Enrichment.Today))
	if in.Enrichment.Currency != "" {
		fmt.Fprintf(&prompt, "CURRENCY: %s\n", in.Enrichment.Currency)
	}
	prompt.WriteString("\nFACTS:\n")
	prompt.WriteString(in.Facts.String())

	resp, err := s.client.Complete(ctx, llm.Request{
		Tag:    Tag(c.category),
		System: system,
		Parts:  []llm.Part{llm.TextPart(prompt.String())},
		JSON:   true,
	})
	if err != nil {
		return fmt.Errorf("extract %s: %w", c.category, err)
	}

	if err := decode(sc.compiled, resp.Text, out); err != nil {
		logger.Warn("extract.output.invalid", "error", err)
		return fmt.Errorf("%w: %s: %w", model.ErrMalformedOutput, c.category, err)
	}

	logger.Debug("extract.output.done", "model", resp.Model, "tokens", resp.TokensUsed)
	return nil
}

// Tag is the request tag of a category's provider call
func Tag(cat model.Category) string {
	return "extract." + string(cat)
}

// decode strips fences, drops empty values, validates and unmarshals
func decode(sc *jsonschema.Schema, text string, out any) error {
	// numbers stay json.Number so long ticket numbers keep every digit
	dec := json.NewDecoder(strings.NewReader(llm.StripFences(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %T", v)
	}
	cleaned := sanitize(obj)
	if cleaned == nil {
		cleaned = map[string]any{}
	}
	if err := sc.Validate(cleaned); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	b, err := json.Marshal(cleaned)
	if err != nil {
		return fmt.Errorf("re-encode: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

var emptyMarkers = map[string]bool{
	"":        true,
	"null":    true,
	"none":    true,
	"n/a":     true,
	"na":      true,
	"unknown": true,
	"-":       true,
}

// sanitize drops nulls, placeholder strings and containers left empty, recursively.
// It returns nil when nothing remains.
func sanitize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if emptyMarkers[strings.ToLower(s)] {
			return nil
		}
		return s
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if c := sanitize(child); c != nil {
				out[k] = c
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			if c := sanitize(child); c != nil {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return v
}

// Text is a model-supplied scalar. Numbers arrive as their literal text.
type Text string

// UnmarshalJSON accepts a string or a number
func (t *Text) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if string(b) == "null" {
		*t = ""
		return nil
	}
	*t = Text(strings.TrimSpace(string(b)))
	return nil
}

// String returns the folded text
func (t Text) String() string {
	return format.Text(string(t))
}
