// Package sniffer inspects candidate invoice files before they are parsed.
// It rejects files that are not PDFs, counts pages and computes the content
// and layout fingerprints used for change detection.
package sniffer

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotPDF    = errors.New("file is not a PDF document")
	ErrNoPages   = errors.New("PDF has no pages")
)

var pdfMagic = []byte("%PDF-")

// FileInfo describes a PDF that passed sniffing.
type FileInfo struct {
	Size        int64
	Pages       int
	Fingerprint string // BLAKE2b-256 of the raw bytes, hex encoded
}

// Check performs the cheap structural checks: non-empty and PDF magic
// within the first kilobyte.
func Check(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	head := data[:min(len(data), 1024)]
	if !bytes.Contains(head, pdfMagic) {
		return ErrNotPDF
	}
	return nil
}

// Sniff validates data as a PDF and reads its page count.
func Sniff(data []byte) (*FileInfo, error) {
	if err := Check(data); err != nil {
		return nil, err
	}

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	if pages == 0 {
		return nil, ErrNoPages
	}

	return &FileInfo{
		Size:        int64(len(data)),
		Pages:       pages,
		Fingerprint: Fingerprint(data),
	}, nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LayoutFingerprint hashes the label tokens of a document: numbers and
// tokens containing digits are dropped and the rest normalized, so two
// invoices from the same template share a fingerprint.
func LayoutFingerprint(tokens []string, limit int) string {
	var labels []string
	for _, tok := range tokens {
		if limit > 0 && len(labels) >= limit {
			break
		}
		if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			continue
		}
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, tok)
		if clean != "" {
			labels = append(labels, clean)
		}
	}
	return Fingerprint([]byte(strings.Join(labels, "|")))
}
