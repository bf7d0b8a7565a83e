// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/import/parser"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/import/repository"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/import/sniffer"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
	"github.com/FACorreiaa/grocery-invoices/pkg/metrics"
	"github.com/FACorreiaa/grocery-invoices/pkg/storage"
)

// layoutTokens is how many leading tokens feed the layout fingerprint of an
// unrecognized document.
const layoutTokens = 40

// Tokenizer turns raw PDF bytes into the token stream the parsers consume.
type Tokenizer interface {
	Tokens(r io.ReaderAt, size int64) ([]string, error)
}

// SniffFunc validates raw file bytes before tokenization.
type SniffFunc func(data []byte) (*sniffer.FileInfo, error)

// UnsupportedLayoutError is returned when no parser recognizes a document.
// Layout identifies the document's label structure so that new layouts can
// be grouped in logs.
type UnsupportedLayoutError struct {
	Layout    string
	Supported []string
}

func (e *UnsupportedLayoutError) Error() string {
	return fmt.Sprintf("%v (layout %s, supported: %s)", parser.ErrUnsupportedFormat, e.Layout, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedLayoutError) Unwrap() error {
	return parser.ErrUnsupportedFormat
}

// ParsedFile is the outcome of parsing one PDF.
type ParsedFile struct {
	Vendor string
	Info   *sniffer.FileInfo
	Result invoice.ParseResult
}

// Items counts the line items across all invoices.
func (p *ParsedFile) Items() int {
	n := 0
	for _, inv := range p.Result.Invoices {
		n += len(inv.Items)
	}
	return n
}

// SyncStats summarizes one directory sync
type SyncStats struct {
	RunID    uuid.UUID     `json:"run_id"`
	Scanned  int           `json:"scanned"`
	Skipped  int           `json:"skipped"`
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Invoices int           `json:"invoices"`
	Items    int           `json:"items"`
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Duration time.Duration `json:"duration"`
}

// RecategorizeResult summarizes a category backfill
type RecategorizeResult struct {
	Scanned      int `json:"scanned"`
	Updated      int `json:"updated"`
	ItemsChanged int `json:"items_changed"`
}

// ImportService orchestrates parsing, persistence and directory syncs
type ImportService struct {
	repo        repository.ImportRepository
	registry    *parser.Registry
	categorizer parser.Categorizer
	tokenizer   Tokenizer
	sniff       SniffFunc
	limiter     *rate.Limiter
	metrics     *metrics.ImportMetrics
	tracer      trace.Tracer
	workers     int
	importedBy  string
	logger      *slog.Logger
}

type fileOutcome int

const (
	outcomeImported fileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type fileResult struct {
	path     string
	outcome  fileOutcome
	invoices int
	items    int
	inserted int
	updated  int
}

// NewImportService creates a new import service with the default parsers,
// the PDF tokenizer and no rate limit
func NewImportService(repo repository.ImportRepository, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	cat := categorization.Default()
	return &ImportService{
		repo:        repo,
		registry:    parser.DefaultRegistry(cat),
		categorizer: cat,
		tokenizer:   parser.NewPDFTokenizer(),
		sniff:       sniffer.Sniff,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		tracer:      otel.Tracer("github.com/FACorreiaa/grocery-invoices/import"),
		workers:     runtime.GOMAXPROCS(0),
		importedBy:  "import",
		logger:      logger,
	}
}

// WithCategorizer swaps the categorizer used by the parsers and Recategorize
func (s *ImportService) WithCategorizer(cat parser.Categorizer) *ImportService {
	s.categorizer = cat
	s.registry = parser.DefaultRegistry(cat)
	return s
}

// WithRegistry overrides the parser registry
func (s *ImportService) WithRegistry(registry *parser.Registry) *ImportService {
	s.registry = registry
	return s
}

// WithTokenizer overrides the PDF tokenizer
func (s *ImportService) WithTokenizer(tokenizer Tokenizer) *ImportService {
	s.tokenizer = tokenizer
	return s
}

// WithSniffer overrides the file validation step
func (s *ImportService) WithSniffer(fn SniffFunc) *ImportService {
	s.sniff = fn
	return s
}

// WithRateLimit caps the number of files started per second. Zero or
// negative disables the limit.
func (s *ImportService) WithRateLimit(filesPerSecond int) *ImportService {
	if filesPerSecond <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return s
	}
	s.limiter = rate.NewLimiter(rate.Limit(filesPerSecond), 1)
	return s
}

// WithWorkers sets how many files are processed concurrently
func (s *ImportService) WithWorkers(n int) *ImportService {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithMetrics enables Prometheus instrumentation
func (s *ImportService) WithMetrics(m *metrics.ImportMetrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer overrides the OpenTelemetry tracer
func (s *ImportService) WithTracer(tracer trace.Tracer) *ImportService {
	s.tracer = tracer
	return s
}

// WithImportedBy sets the name recorded in the file ledger
func (s *ImportService) WithImportedBy(name string) *ImportService {
	if name != "" {
		s.importedBy = name
	}
	return s
}

// ParseFile parses the PDF at path without touching the database
func (s *ImportService) ParseFile(ctx context.Context, path string) (*ParsedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.ParseBytes(ctx, data)
}

// ParseReader parses a PDF read fully from r
func (s *ImportService) ParseReader(ctx context.Context, r io.Reader) (*ParsedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return s.ParseBytes(ctx, data)
}

// ParseBytes sniffs, tokenizes and parses one PDF.
// An unrecognized document yields an *UnsupportedLayoutError.
func (s *ImportService) ParseBytes(ctx context.Context, data []byte) (*ParsedFile, error) {
	_, span := s.tracer.Start(ctx, "import.ParseBytes",
		trace.WithAttributes(attribute.Int("size", len(data))),
	)
	defer span.End()

	info, err := s.sniff(data)
	if err != nil {
		return nil, spanError(span, err)
	}
	parsed, err := s.parseSniffed(data, info)
	if err != nil {
		return nil, spanError(span, err)
	}

	span.SetAttributes(
		attribute.String("vendor", parsed.Vendor),
		attribute.Int("invoices", len(parsed.Result.Invoices)),
		attribute.Int("items", parsed.Items()),
	)
	return parsed, nil
}

// parseSniffed tokenizes and parses data that already passed the sniffer.
func (s *ImportService) parseSniffed(data []byte, info *sniffer.FileInfo) (*ParsedFile, error) {
	start := time.Now()

	tokens, err := s.tokenizer.Tokens(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	p, err := s.registry.Detect(tokens)
	if err != nil {
		return nil, &UnsupportedLayoutError{
			Layout:    sniffer.LayoutFingerprint(tokens, layoutTokens),
			Supported: s.registry.Names(),
		}
	}

	parsed := &ParsedFile{
		Vendor: p.Name(),
		Info:   info,
		Result: p.Parse(tokens),
	}

	categories := make([]string, 0, parsed.Items())
	for _, inv := range parsed.Result.Invoices {
		for _, it := range inv.Items {
			categories = append(categories, it.Category)
		}
	}
	s.metrics.ObserveParse(parsed.Vendor, time.Since(start), len(parsed.Result.Invoices), categories)
	return parsed, nil
}

// SyncDirectory imports every new or changed PDF under dir
func (s *ImportService) SyncDirectory(ctx context.Context, dir string) (*SyncStats, error) {
	src, err := storage.New(&storage.Config{Type: storage.SourceTypeLocal, LocalPath: dir})
	if err != nil {
		return nil, err
	}
	return s.Sync(ctx, src)
}

// Sync imports every new or changed PDF listed by src.
// A failing file is recorded in the ledger and never aborts the run.
func (s *ImportService) Sync(ctx context.Context, src storage.Source) (*SyncStats, error) {
	stats := &SyncStats{RunID: uuid.New()}
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "import.Sync",
		trace.WithAttributes(attribute.String("run_id", stats.RunID.String())),
	)
	defer span.End()

	files, err := src.List(ctx)
	if err != nil {
		return nil, spanError(span, err)
	}
	stats.Scanned = len(files)

	s.logger.Info("invoice sync started",
		slog.String("run_id", stats.RunID.String()),
		slog.Int("files", len(files)),
		slog.Int("workers", s.workers),
	)

	for res := range s.processFiles(ctx, src, files) {
		switch res.outcome {
		case outcomeImported:
			stats.Imported++
			stats.Invoices += res.invoices
			stats.Items += res.items
			stats.Inserted += res.inserted
			stats.Updated += res.updated
			s.metrics.ObserveFile(metrics.OutcomeImported)
		case outcomeSkipped:
			stats.Skipped++
			s.metrics.ObserveFile(metrics.OutcomeSkipped)
		case outcomeFailed:
			stats.Failed++
			s.metrics.ObserveFile(metrics.OutcomeFailed)
		}
	}

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return stats, spanError(span, err)
	}
	s.metrics.SyncCompleted(time.Now())

	span.SetAttributes(
		attribute.Int("imported", stats.Imported),
		attribute.Int("failed", stats.Failed),
	)
	s.logger.Info("invoice sync completed",
		slog.String("run_id", stats.RunID.String()),
		slog.Int("scanned", stats.Scanned),
		slog.Int("skipped", stats.Skipped),
		slog.Int("imported", stats.Imported),
		slog.Int("failed", stats.Failed),
		slog.Int("invoices", stats.Invoices),
		slog.Int("items", stats.Items),
		slog.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// processFiles fans files out to the worker pool. The limiter paces how fast
// files are handed out. The returned channel closes when all workers finish.
func (s *ImportService) processFiles(ctx context.Context, src storage.Source, files []*storage.FileInfo) <-chan fileResult {
	workerCount := min(max(s.workers, 1), max(len(files), 1))

	jobs := make(chan *storage.FileInfo, workerCount*2)
	results := make(chan fileResult, workerCount*2)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				if ctx.Err() != nil {
					return
				}
				res := s.importFile(ctx, src, file)
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, file := range files {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// importFile runs one file through claim, parse and upsert
func (s *ImportService) importFile(ctx context.Context, src storage.Source, file *storage.FileInfo) fileResult {
	ctx, span := s.tracer.Start(ctx, "import.File",
		trace.WithAttributes(attribute.String("path", file.Path)),
	)
	defer span.End()

	res := fileResult{path: file.Path, outcome: outcomeFailed}

	data, err := src.ReadFile(ctx, file.Path)
	if err != nil {
		// Unreadable files never reach the ledger: there is no fingerprint to claim.
		s.logFailure(file.Path, "", err)
		spanError(span, err)
		return res
	}

	info, sniffErr := s.sniff(data)
	entry := &repository.ImportedFile{
		Path:        file.Path,
		Fingerprint: sniffer.Fingerprint(data),
		SizeBytes:   int64(len(data)),
		ImportedBy:  s.importedBy,
	}
	if info != nil {
		entry.Pages = info.Pages
	}

	claimed, err := s.repo.ClaimFile(ctx, entry)
	if err != nil {
		s.logFailure(file.Path, "", err)
		spanError(span, err)
		return res
	}
	if !claimed {
		s.logger.Info("IMPORT_SKIP",
			slog.String("path", file.Path),
			slog.String("fingerprint", entry.Fingerprint),
		)
		res.outcome = outcomeSkipped
		return res
	}

	if sniffErr != nil {
		s.fail(ctx, file.Path, "", sniffErr)
		spanError(span, sniffErr)
		return res
	}

	parsed, err := s.parseSniffed(data, info)
	if err != nil {
		layout := ""
		var layoutErr *UnsupportedLayoutError
		if errors.As(err, &layoutErr) {
			layout = layoutErr.Layout
		}
		s.fail(ctx, file.Path, layout, err)
		spanError(span, err)
		return res
	}

	err = s.repo.WithTx(ctx, func(tx repository.ImportRepository) error {
		for _, inv := range parsed.Result.Invoices {
			outcome, err := tx.UpsertInvoice(ctx, &repository.InvoiceRecord{
				Vendor:     parsed.Vendor,
				SourcePath: file.Path,
				Invoice:    inv,
			})
			if err != nil {
				return err
			}
			switch outcome {
			case repository.UpsertInserted:
				res.inserted++
			case repository.UpsertUpdated:
				res.updated++
			}
		}
		return tx.MarkProcessed(ctx, file.Path, parsed.Vendor, len(parsed.Result.Invoices))
	})
	if err != nil {
		s.fail(ctx, file.Path, "", err)
		spanError(span, err)
		res.inserted, res.updated = 0, 0
		return res
	}

	res.outcome = outcomeImported
	res.invoices = len(parsed.Result.Invoices)
	res.items = parsed.Items()

	s.logger.Info("IMPORT_OK",
		slog.String("path", file.Path),
		slog.String("vendor", parsed.Vendor),
		slog.Int("invoices", res.invoices),
		slog.Int("items", res.items),
		slog.Int("inserted", res.inserted),
		slog.Int("updated", res.updated),
	)
	return res
}

// fail records a claimed file as failed and logs it
func (s *ImportService) fail(ctx context.Context, path, layout string, cause error) {
	s.logFailure(path, layout, cause)
	if err := s.repo.MarkFailed(ctx, path, cause.Error()); err != nil {
		s.logger.Error("failed to record import failure",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}

func (s *ImportService) logFailure(path, layout string, cause error) {
	attrs := []any{
		slog.String("path", path),
		slog.Any("error", cause),
	}
	if layout != "" {
		attrs = append(attrs, slog.String("layout", layout))
	}
	s.logger.Warn("IMPORT_FAIL", attrs...)
}

// Invoices lists stored invoices
func (s *ImportService) Invoices(ctx context.Context, filter repository.ListFilter) ([]*repository.InvoiceRecord, error) {
	return s.repo.ListInvoices(ctx, filter)
}

// Stats returns aggregate totals over stored invoices
func (s *ImportService) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.repo.Stats(ctx)
}

// Recategorize re-runs the categorizer over every stored item and rewrites
// the invoices whose categories changed
func (s *ImportService) Recategorize(ctx context.Context) (*RecategorizeResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.Recategorize")
	defer span.End()

	records, err := s.repo.ListInvoices(ctx, repository.ListFilter{})
	if err != nil {
		return nil, spanError(span, err)
	}

	result := &RecategorizeResult{Scanned: len(records)}
	for _, rec := range records {
		items := make([]invoice.Item, len(rec.Invoice.Items))
		copy(items, rec.Invoice.Items)

		changed := 0
		for i := range items {
			category := s.categorizer.Categorize(items[i].Description)
			if category != items[i].Category {
				items[i].Category = category
				changed++
			}
		}
		if changed == 0 {
			continue
		}

		if err := s.repo.UpdateInvoiceItems(ctx, rec.ID, items); err != nil {
			return result, spanError(span, fmt.Errorf("failed to update invoice %s: %w", rec.ID, err))
		}
		result.Updated++
		result.ItemsChanged += changed
	}

	s.logger.Info("recategorization completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("updated", result.Updated),
		slog.Int("items_changed", result.ItemsChanged),
	)
	return result, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
