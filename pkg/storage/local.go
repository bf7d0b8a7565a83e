package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalSource implements Source over a directory tree
type LocalSource struct {
	basePath string
}

// NewLocalSource creates a source rooted at basePath, which must be an existing directory
func NewLocalSource(basePath string) (*LocalSource, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve import directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open import directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import path %s is not a directory", abs)
	}

	return &LocalSource{basePath: abs}, nil
}

// Root returns the absolute directory the source walks
func (s *LocalSource) Root() string {
	return s.basePath
}

// List walks the tree for *.pdf files (any case).
// Symlinks are never followed and hidden directories are skipped.
func (s *LocalSource) List(ctx context.Context) ([]*FileInfo, error) {
	var files []*FileInfo

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != s.basePath && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		if !IsPDFName(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		files = append(files, &FileInfo{
			Path:    path,
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list import directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Open returns a reader for a file inside the source
func (s *LocalSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// ReadFile reads a file inside the source
func (s *LocalSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *LocalSource) contains(path string) error {
	rel, err := filepath.Rel(s.basePath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside %s", path, s.basePath)
	}
	return nil
}

// IsPDFName reports whether name has a .pdf extension, ignoring case
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
