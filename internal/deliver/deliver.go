// Package deliver hands terminal payloads to their destinations
package deliver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ppiankov/itinera/internal/model"
)

// Delivery is one terminal payload with the routing data that travels beside it
type Delivery struct {
	RequestID     string
	TravellerName string
	CallbackURL   string
	Payload       model.Payload
}

// Deliverer sends a delivery somewhere
type Deliverer interface {
	Deliver(ctx context.Context, d Delivery) error
}

// Multi delivers to every destination and joins their errors
type Multi []Deliverer

// Deliver calls each deliverer in order; one failure does not stop the rest
func (m Multi) Deliver(ctx context.Context, d Delivery) error {
	var errs []error
	for _, dl := range m {
		if err := dl.Deliver(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Writer prints payloads as indented JSON, e.g. to stdout
type Writer struct {
	w io.Writer
}

// NewWriter creates a console deliverer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Deliver writes the payload followed by a newline
func (c *Writer) Deliver(_ context.Context, d Delivery) error {
	enc := json.NewEncoder(c.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.Payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Dir writes each payload to <dir>/<request id>.json
type Dir struct {
	dir string
}

// NewDir creates a file deliverer rooted at dir
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// Path returns the file a request's payload is written to
func (f *Dir) Path(requestID string) string {
	name := unsafeName.ReplaceAllString(requestID, "_")
	if name == "" || name == "." || name == ".." {
		name = "payload"
	}
	return filepath.Join(f.dir, name+".json")
}

// Deliver writes the payload atomically
func (f *Dir) Deliver(_ context.Context, d Delivery) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(d.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	path := f.Path(d.RequestID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}
