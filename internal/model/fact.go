package model

import (
	"strings"
)

// Fact is one label/value pair taken verbatim from a source document
type Fact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Facts is the ordered fact sequence produced for one request
type Facts []Fact

// CanonicalLabel upper-cases a label and collapses inner whitespace
func CanonicalLabel(label string) string {
	return strings.ToUpper(strings.Join(strings.Fields(label), " "))
}

// First returns the first value recorded under label
func (f Facts) First(label string) (string, bool) {
	want := CanonicalLabel(label)
	for _, fact := range f {
		if CanonicalLabel(fact.Label) == want {
			return fact.Value, true
		}
	}
	return "", false
}

// FirstOf returns the first value found for any of the labels, checked in order
func (f Facts) FirstOf(labels ...string) (string, bool) {
	for _, label := range labels {
		if v, ok := f.First(label); ok {
			return v, true
		}
	}
	return "", false
}

// All returns every value recorded under label in document order
func (f Facts) All(label string) []string {
	want := CanonicalLabel(label)
	var values []string
	for _, fact := range f {
		if CanonicalLabel(fact.Label) == want {
			values = append(values, fact.Value)
		}
	}
	return values
}

// Has reports whether label occurs at least once
func (f Facts) Has(label string) bool {
	_, ok := f.First(label)
	return ok
}

// Labels returns the canonical labels in first-seen order without duplicates
func (f Facts) Labels() []string {
	seen := make(map[string]bool, len(f))
	labels := make([]string, 0, len(f))
	for _, fact := range f {
		l := CanonicalLabel(fact.Label)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	return labels
}

// String renders facts in the LABEL: value grammar, one per line
func (f Facts) String() string {
	var b strings.Builder
	for _, fact := range f {
		b.WriteString(fact.Label)
		b.WriteString(": ")
		b.WriteString(fact.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
