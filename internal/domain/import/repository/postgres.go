package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

// Querier is the part of *pgxpool.Pool and pgx.Tx the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresImportRepository implements ImportRepository using PostgreSQL
type PostgresImportRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewPostgresImportRepository creates a new PostgreSQL import repository
func NewPostgresImportRepository(db Querier, logger *slog.Logger) *PostgresImportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresImportRepository{db: db, logger: logger}
}

// WithTx runs fn in a transaction. The transaction is rolled back when fn fails.
func (r *PostgresImportRepository) WithTx(ctx context.Context, fn func(ImportRepository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&PostgresImportRepository{db: tx, logger: r.logger}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClaimFile registers a file as pending. It returns false when the same
// content was already processed under this path.
func (r *PostgresImportRepository) ClaimFile(ctx context.Context, file *ImportedFile) (bool, error) {
	query := `
		INSERT INTO imported_files (path, fingerprint, size_bytes, pages, status, imported_by)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		ON CONFLICT (path) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			size_bytes = EXCLUDED.size_bytes,
			pages = EXCLUDED.pages,
			status = 'pending',
			error = NULL,
			imported_by = EXCLUDED.imported_by,
			updated_at = now()
		WHERE imported_files.fingerprint <> EXCLUDED.fingerprint
			OR imported_files.status <> 'processed'
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		file.Path,
		file.Fingerprint,
		file.SizeBytes,
		file.Pages,
		file.ImportedBy,
	).Scan(&file.CreatedAt, &file.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim file: %w", err)
	}
	file.Status = FileStatusPending
	return true, nil
}

// MarkProcessed records a successful import
func (r *PostgresImportRepository) MarkProcessed(ctx context.Context, path, vendor string, invoices int) error {
	query := `
		UPDATE imported_files
		SET status = 'processed', vendor = $2, invoice_count = $3, error = NULL, updated_at = now()
		WHERE path = $1`

	return r.execOne(ctx, "mark file processed", query, path, vendor, invoices)
}

// MarkFailed records a failed import and its reason
func (r *PostgresImportRepository) MarkFailed(ctx context.Context, path, reason string) error {
	query := `
		UPDATE imported_files
		SET status = 'failed', error = $2, updated_at = now()
		WHERE path = $1`

	return r.execOne(ctx, "mark file failed", query, path, reason)
}

// UpsertInvoice inserts an invoice or refreshes the stored copy with the
// same dedupe key. A stored invoice with the same total and item count is
// left untouched.
func (r *PostgresImportRepository) UpsertInvoice(ctx context.Context, rec *InvoiceRecord) (UpsertOutcome, error) {
	query := `
		INSERT INTO invoices (
			id, dedupe_key, vendor, source_path, invoice_no, order_no, invoice_date_raw, invoice_date,
			partner_registered_name, partner_known_name, items, item_count, items_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (dedupe_key) DO UPDATE SET
			vendor = EXCLUDED.vendor,
			source_path = EXCLUDED.source_path,
			invoice_date_raw = EXCLUDED.invoice_date_raw,
			invoice_date = EXCLUDED.invoice_date,
			partner_registered_name = EXCLUDED.partner_registered_name,
			partner_known_name = EXCLUDED.partner_known_name,
			items = EXCLUDED.items,
			item_count = EXCLUDED.item_count,
			items_total = EXCLUDED.items_total,
			updated_at = now()
		WHERE invoices.items_total IS DISTINCT FROM EXCLUDED.items_total
			OR invoices.item_count <> EXCLUDED.item_count
		RETURNING id, (xmax = 0) AS inserted, created_at, updated_at`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	inv := rec.Invoice
	items, err := marshalItems(inv.Items)
	if err != nil {
		return UpsertUnchanged, err
	}
	registered, known := partnerNames(inv.DeliveryPartner)

	var inserted bool
	err = r.db.QueryRow(ctx, query,
		rec.ID,
		inv.DedupeKey(),
		rec.Vendor,
		rec.SourcePath,
		inv.InvoiceNo,
		orderNos(inv.OrderNo),
		inv.Date,
		invoiceDate(inv),
		registered,
		known,
		items,
		len(inv.Items),
		inv.ItemsTotal,
	).Scan(&rec.ID, &inserted, &rec.CreatedAt, &rec.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return UpsertUnchanged, nil
	}
	if err != nil {
		return UpsertUnchanged, fmt.Errorf("failed to upsert invoice: %w", err)
	}
	if inserted {
		return UpsertInserted, nil
	}
	return UpsertUpdated, nil
}

const invoiceColumns = `id, vendor, source_path, invoice_no, order_no, invoice_date_raw,
			partner_registered_name, partner_known_name, items, items_total::float8, created_at, updated_at`

// ListInvoices returns stored invoices, oldest first
func (r *PostgresImportRepository) ListInvoices(ctx context.Context, filter ListFilter) ([]*InvoiceRecord, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE TRUE`

	var args []any
	argIdx := 1
	if filter.Vendor != "" {
		query += fmt.Sprintf(` AND vendor = $%d`, argIdx)
		args = append(args, filter.Vendor)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND items @> jsonb_build_array(jsonb_build_object('category', $%d::text))`, argIdx)
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(` AND invoice_date >= $%d`, argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(` AND invoice_date <= $%d`, argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	query += ` ORDER BY invoice_date ASC NULLS LAST, created_at ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var records []*InvoiceRecord
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateInvoiceItems replaces the items of an invoice and recomputes its total
func (r *PostgresImportRepository) UpdateInvoiceItems(ctx context.Context, id uuid.UUID, items []invoice.Item) error {
	query := `
		UPDATE invoices
		SET items = $2, item_count = $3, items_total = $4, updated_at = now()
		WHERE id = $1`

	raw, err := marshalItems(items)
	if err != nil {
		return err
	}
	return r.execOne(ctx, "update invoice items", query, id, raw, len(items), invoice.ItemsTotal(items))
}

// Stats aggregates stored invoices overall and per category, month and vendor
func (r *PostgresImportRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(item_count), 0), COALESCE(SUM(items_total), 0)::float8
		FROM invoices`,
	).Scan(&stats.Invoices, &stats.Items, &stats.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	if stats.ByCategory, err = r.buckets(ctx, "category", `
		SELECT COALESCE(item->>'category', 'Others'), COUNT(*), COALESCE(SUM((item->>'price')::numeric), 0)::float8
		FROM invoices, jsonb_array_elements(items) AS item
		GROUP BY 1
		ORDER BY 3 DESC`); err != nil {
		return nil, err
	}

	if stats.ByMonth, err = r.buckets(ctx, "month", `
		SELECT to_char(invoice_date, 'YYYY-MM'), COUNT(*), COALESCE(SUM(items_total), 0)::float8
		FROM invoices
		WHERE invoice_date IS NOT NULL
		GROUP BY 1
		ORDER BY 1`); err != nil {
		return nil, err
	}

	if stats.ByVendor, err = r.buckets(ctx, "vendor", `
		SELECT vendor, COUNT(*), COALESCE(SUM(items_total), 0)::float8
		FROM invoices
		GROUP BY 1
		ORDER BY 1`); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *PostgresImportRepository) buckets(ctx context.Context, name, query string) ([]Bucket, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s stats: %w", name, err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count, &b.Total); err != nil {
			return nil, fmt.Errorf("failed to scan %s stats: %w", name, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresImportRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*InvoiceRecord, error) {
	var (
		rec        InvoiceRecord
		orderNo    []string
		registered *string
		known      *string
		items      []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.Vendor,
		&rec.SourcePath,
		&rec.Invoice.InvoiceNo,
		&orderNo,
		&rec.Invoice.Date,
		&registered,
		&known,
		&items,
		&rec.Invoice.ItemsTotal,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(orderNo) > 0 {
		rec.Invoice.OrderNo = invoice.OrderNo(orderNo)
	}
	if registered != nil || known != nil {
		rec.Invoice.DeliveryPartner = &invoice.DeliveryPartner{RegisteredName: registered, KnownName: known}
	}
	rec.Invoice.Items = []invoice.Item{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &rec.Invoice.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
	}
	return &rec, nil
}

func marshalItems(items []invoice.Item) ([]byte, error) {
	if items == nil {
		items = []invoice.Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	return raw, nil
}

func orderNos(o invoice.OrderNo) []string {
	if o == nil {
		return []string{}
	}
	return []string(o)
}

func partnerNames(p *invoice.DeliveryPartner) (*string, *string) {
	if p == nil {
		return nil, nil
	}
	return p.RegisteredName, p.KnownName
}

func invoiceDate(inv invoice.Invoice) *time.Time {
	if t, ok := inv.ParsedDate(); ok {
		return &t
	}
	return nil
}
