package intake

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
)

// maxEntryBytes caps a single decompressed archive entry
const maxEntryBytes = 50 << 20

// ExpandZip returns the booking documents inside a zip archive.
// Directories, dotfiles and __MACOSX entries are skipped, and only
// pdf, eml, md and txt entries are kept.
func ExpandZip(doc model.Document) ([]model.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", doc.Name, err)
	}

	var out []model.Document
	for _, f := range zr.File {
		if !keepEntry(f) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", doc.Name, err)
		}
		out = append(out, model.Document{Name: path.Base(f.Name), Data: data})
	}
	return out, nil
}

func keepEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return false
	}
	for _, part := range strings.Split(f.Name, "/") {
		if part == "__MACOSX" || (strings.HasPrefix(part, ".") && part != ".") {
			return false
		}
	}
	switch strings.ToLower(path.Ext(f.Name)) {
	case ".pdf", ".eml", ".md", ".txt":
		return true
	}
	return false
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntryBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return data, nil
}
