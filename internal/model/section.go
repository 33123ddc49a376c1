package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Record is an ordered set of string fields belonging to one screen.
// Empty values are never stored, so an absent field has no key at all.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set stores value under key. Blank values are dropped and remove any earlier value.
func (r *Record) Set(key, value string) *Record {
	value = strings.TrimSpace(value)
	if value == "" {
		r.Delete(key)
		return r
	}
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Get returns the value stored under key
func (r *Record) Get(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[key]
	return v, ok
}

// Delete removes key
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// MarshalJSON writes the record as a JSON object in insertion order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r != nil {
		for i, k := range r.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := json.Marshal(r.values[k])
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object of strings, keeping document key order
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.keys = nil
	r.values = make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		r.Set(key, value)
	}
	_, err := dec.Token()
	return err
}

// Section is one structured output block corresponding to one downstream screen
type Section struct {
	Title string `json:"title"`
	Data  any    `json:"data"` // *Record or []*Record
}

// NewSection creates a single-record section
func NewSection(title string, rec *Record) Section {
	if rec == nil {
		rec = NewRecord()
	}
	return Section{Title: title, Data: rec}
}

// NewListSection creates a section holding one record per sub-entity
func NewListSection(title string, recs []*Record) Section {
	if recs == nil {
		recs = []*Record{}
	}
	return Section{Title: title, Data: recs}
}

// Records returns the records held by the section regardless of its shape
func (s Section) Records() []*Record {
	switch d := s.Data.(type) {
	case *Record:
		return []*Record{d}
	case []*Record:
		return d
	}
	return nil
}
