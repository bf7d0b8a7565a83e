// Package repository provides database operations for imported invoices.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

var ErrNotFound = errors.New("not found")

// FileStatus is the state of a file in the import ledger
type FileStatus string

const (
	FileStatusPending   FileStatus = "pending"
	FileStatusProcessed FileStatus = "processed"
	FileStatusFailed    FileStatus = "failed"
)

// ImportedFile is one entry of the processed-file ledger
type ImportedFile struct {
	Path         string
	Fingerprint  string
	SizeBytes    int64
	Pages        int
	Vendor       *string
	Status       FileStatus
	Error        *string
	InvoiceCount int
	ImportedBy   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InvoiceRecord is an invoice as stored, with its provenance
type InvoiceRecord struct {
	ID         uuid.UUID
	Vendor     string
	SourcePath string
	Invoice    invoice.Invoice
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UpsertOutcome reports what UpsertInvoice did
type UpsertOutcome int

const (
	UpsertUnchanged UpsertOutcome = iota
	UpsertInserted
	UpsertUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// ListFilter narrows ListInvoices. Zero values mean no filter.
type ListFilter struct {
	Vendor   string
	Category string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Bucket is an aggregate of invoice or item amounts.
type Bucket struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Stats summarizes stored invoices
type Stats struct {
	Invoices   int      `json:"invoices"`
	Items      int      `json:"items"`
	Total      float64  `json:"total"`
	ByCategory []Bucket `json:"by_category"`
	ByMonth    []Bucket `json:"by_month"`
	ByVendor   []Bucket `json:"by_vendor"`
}

// ImportRepository defines the persistence operations of the import pipeline
type ImportRepository interface {
	// File ledger
	ClaimFile(ctx context.Context, file *ImportedFile) (bool, error)
	MarkProcessed(ctx context.Context, path, vendor string, invoices int) error
	MarkFailed(ctx context.Context, path, reason string) error

	// Invoices
	UpsertInvoice(ctx context.Context, rec *InvoiceRecord) (UpsertOutcome, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]*InvoiceRecord, error)
	UpdateInvoiceItems(ctx context.Context, id uuid.UUID, items []invoice.Item) error

	// Reporting
	Stats(ctx context.Context) (*Stats, error)

	// WithTx runs fn against a repository bound to one transaction.
	WithTx(ctx context.Context, fn func(ImportRepository) error) error
}
