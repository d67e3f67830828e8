// Package catalog - Catalog sources
// A Source performs the external read; a Provider hands engines a catalog.
package catalog

import (
	"context"
	_ "embed"
	"os"
	"sync"

	"agent-cost/internal/errors"
)

//go:embed default_catalog.json
var defaultCatalogJSON []byte

// Source reads and parses a catalog from somewhere
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Load reads and parses the catalog
	Load(ctx context.Context) (*Catalog, error)
}

// Provider supplies the catalog engines should price against. Tests use
// Static; binaries use a Cache over a Source.
type Provider interface {
	Catalog(ctx context.Context) (*Catalog, error)
}

// FileSource loads a catalog file, JSON or YAML by extension
type FileSource struct {
	Path string
}

// NewFileSource creates a file source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file path
func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// Load reads the file
func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("pricing catalog", s.Path)
		}
		return nil, errors.Wrapf(errors.TypeConfig, err, "reading pricing catalog %s", s.Path)
	}
	cat, err := Parse(data, FormatForPath(s.Path))
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "loading pricing catalog %s", s.Path)
	}
	return cat, nil
}

// EmbeddedSource serves the catalog compiled into the binary
type EmbeddedSource struct{}

// Name returns "embedded"
func (EmbeddedSource) Name() string {
	return "embedded"
}

// Load parses the embedded document
func (EmbeddedSource) Load(ctx context.Context) (*Catalog, error) {
	return Default()
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It is parsed once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalogJSON, FormatJSON)
	})
	return defaultCat, defaultErr
}

// DefaultDocument returns the raw embedded catalog, e.g. for `catalog show`
func DefaultDocument() []byte {
	out := make([]byte, len(defaultCatalogJSON))
	copy(out, defaultCatalogJSON)
	return out
}

// Static is a Provider that always returns the same catalog
type Static struct {
	cat *Catalog
}

// NewStatic wraps a catalog as a Provider
func NewStatic(cat *Catalog) *Static {
	return &Static{cat: cat}
}

// Catalog returns the wrapped catalog
func (s *Static) Catalog(ctx context.Context) (*Catalog, error) {
	if s.cat == nil {
		return nil, errors.Config("no pricing catalog loaded")
	}
	return s.cat, nil
}

// SourceFor picks a file source for a non-empty path, else the embedded one
func SourceFor(path string) Source {
	if path == "" {
		return EmbeddedSource{}
	}
	return NewFileSource(path)
}
