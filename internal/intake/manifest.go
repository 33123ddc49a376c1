// Package intake builds pipeline requests from manifests, local files, zip archives and URLs
package intake

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ppiankov/itinera/internal/format"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Manifest describes one booking request on disk
type Manifest struct {
	ID          string        `yaml:"id,omitempty"`
	Vendor      string        `yaml:"vendor,omitempty"`
	BookingType string        `yaml:"booking_type,omitempty"`
	Fee         string        `yaml:"fee,omitempty"` // e.g. "75" or "$75.00"
	Callback    string        `yaml:"callback,omitempty"`
	Documents   []DocumentRef `yaml:"documents"`

	dir string // Relative document paths resolve against it
}

// DocumentRef points at a document by local path or URL
type DocumentRef struct {
	Path      string `yaml:"path,omitempty"`
	URL       string `yaml:"url,omitempty"`
	MediaType string `yaml:"media_type,omitempty"`
}

// LoadManifest reads a YAML manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes and checks a YAML manifest
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Documents) == 0 {
		return nil, errors.New("manifest lists no documents")
	}
	for i, d := range m.Documents {
		if (d.Path == "") == (d.URL == "") {
			return nil, fmt.Errorf("document %d: exactly one of path or url is required", i+1)
		}
	}
	if _, err := m.FeeAmount(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FeeAmount parses the optional planning fee; an absent fee is zero
func (m *Manifest) FeeAmount() (decimal.Decimal, error) {
	if strings.TrimSpace(m.Fee) == "" {
		return decimal.Zero, nil
	}
	d, ok := format.ParseMoney(m.Fee)
	if !ok || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid fee %q", m.Fee)
	}
	return d, nil
}

// Loader resolves manifests into requests
type Loader struct {
	fetcher *Fetcher // nil rejects URL documents
	logger  *slog.Logger
}

// NewLoader creates a loader. fetcher and logger may be nil.
func NewLoader(fetcher *Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: fetcher, logger: logger}
}

// Request reads, fetches and expands every document of m.
// A request id is assigned when the manifest has none.
func (l *Loader) Request(ctx context.Context, m *Manifest) (model.Request, error) {
	fee, err := m.FeeAmount()
	if err != nil {
		return model.Request{}, err
	}
	req := model.Request{
		ID:              m.ID,
		VendorHint:      m.Vendor,
		BookingTypeHint: m.BookingType,
		FeeAmount:       fee,
		CallbackURL:     m.Callback,
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	for _, ref := range m.Documents {
		doc, err := l.document(ctx, m.dir, ref)
		if err != nil {
			return model.Request{}, err
		}
		docs, err := Expand(doc)
		if err != nil {
			return model.Request{}, err
		}
		req.Documents = append(req.Documents, docs...)
	}
	if len(req.Documents) == 0 {
		return model.Request{}, fmt.Errorf("%w: no readable documents", model.ErrUnsupportedMedia)
	}

	l.logger.Debug("intake.request.ready", "req_id", req.ID, "documents", len(req.Documents))
	return req, nil
}

// Files builds a manifest from local paths, as the process command does
func Files(paths []string) *Manifest {
	m := &Manifest{}
	for _, p := range paths {
		m.Documents = append(m.Documents, DocumentRef{Path: p})
	}
	return m
}

func (l *Loader) document(ctx context.Context, dir string, ref DocumentRef) (model.Document, error) {
	if ref.URL != "" {
		if l.fetcher == nil {
			return model.Document{}, fmt.Errorf("%s: URL documents are disabled", ref.URL)
		}
		doc, err := l.fetcher.FetchWithRetry(ctx, ref.URL)
		if err != nil {
			return model.Document{}, fmt.Errorf("%s: %w", ref.URL, err)
		}
		if ref.MediaType != "" {
			doc.MediaType = ref.MediaType
		}
		l.logger.Debug("intake.fetch.done", "url", ref.URL, "bytes", len(doc.Data))
		return doc, nil
	}

	p := ref.Path
	if !filepath.IsAbs(p) && dir != "" {
		p = filepath.Join(dir, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return model.Document{}, fmt.Errorf("read document: %w", err)
	}
	return model.Document{Name: filepath.Base(p), MediaType: ref.MediaType, Data: data}, nil
}

// Expand unpacks zip archives and rejects media the normalizer cannot read
func Expand(doc model.Document) ([]model.Document, error) {
	switch doc.Media() {
	case model.MediaZip:
		return ExpandZip(doc)
	case model.MediaUnknown:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedMedia, doc.Name)
	}
	return []model.Document{doc}, nil
}

// ReadList reads manifest paths from a file (one per line).
// Blank lines and # comments are skipped and duplicates dropped.
func ReadList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(filepath.Dir(filePath), line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// Manifests lists the *.yaml and *.yml files directly inside dir, sorted by name
func Manifests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
