// Package storage provides access to the invoice PDFs waiting to be imported.
package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a candidate invoice file
type FileInfo struct {
	Path    string    `json:"path"` // Absolute path, used as the ledger key
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Source defines the operations the import pipeline needs from a file location
type Source interface {
	// List returns every invoice PDF under the source, sorted by path
	List(ctx context.Context) ([]*FileInfo, error)

	// Open returns a reader for a listed file
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// ReadFile returns the whole content of a listed file
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// SourceType identifies the storage backend
type SourceType string

const (
	SourceTypeLocal SourceType = "local"
)

// Config holds storage configuration
type Config struct {
	Type      SourceType
	LocalPath string
}

// New creates a Source based on configuration
func New(cfg *Config) (Source, error) {
	switch cfg.Type {
	case SourceTypeLocal:
		fallthrough
	default:
		src, err := NewLocalSource(cfg.LocalPath)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}
