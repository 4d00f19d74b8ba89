package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicely/invoicely/internal/platform/db"
)

// Repository defines persistence operations for invoices.
type Repository interface {
	Create(ctx context.Context, inv Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Invoice, error)
	Update(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, ownerID int64, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts an invoice header; new invoices have no lines.
func (r *PGRepository) Create(ctx context.Context, inv Invoice) error {
	const query = `
		INSERT INTO invoices (
			id, owner_id, name, issuer_name, issuer_address, client_name, client_address,
			invoice_date, due_date, vat_active, vat_rate, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.pool.Exec(ctx, query,
		inv.ID, inv.OwnerID, inv.Name, inv.IssuerName, inv.IssuerAddress, inv.ClientName, inv.ClientAddress,
		nullDate(inv.InvoiceDate), nullDate(inv.DueDate), inv.VATActive, inv.VATRate, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("invoice: insert: %w", err)
	}
	return nil
}

// Get loads an invoice with its ordered lines.
func (r *PGRepository) Get(ctx context.Context, id string) (*Invoice, error) {
	const query = `
		SELECT id, owner_id, name, issuer_name, issuer_address, client_name, client_address,
			invoice_date, due_date, vat_active, vat_rate, created_at, updated_at
		FROM invoices
		WHERE id = $1`

	var inv Invoice
	var invoiceDate, dueDate pgtype.Date
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.OwnerID, &inv.Name, &inv.IssuerName, &inv.IssuerAddress, &inv.ClientName, &inv.ClientAddress,
		&invoiceDate, &dueDate, &inv.VATActive, &inv.VATRate, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: get: %w", err)
	}
	inv.InvoiceDate = dateValue(invoiceDate)
	inv.DueDate = dateValue(dueDate)

	rows, err := r.pool.Query(ctx, `
		SELECT description, quantity, unit_price
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("invoice: list lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.Description, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("invoice: scan line: %w", err)
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice: list lines: %w", err)
	}
	return &inv, nil
}

// ListByOwner returns invoice headers, most recently updated first.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, client_name, invoice_date, due_date, vat_active, vat_rate, created_at, updated_at
		FROM invoices
		WHERE owner_id = $1
		ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("invoice: list: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		var invoiceDate, dueDate pgtype.Date
		if err := rows.Scan(&inv.ID, &inv.OwnerID, &inv.Name, &inv.ClientName, &invoiceDate, &dueDate,
			&inv.VATActive, &inv.VATRate, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("invoice: scan: %w", err)
		}
		inv.InvoiceDate = dateValue(invoiceDate)
		inv.DueDate = dateValue(dueDate)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Update rewrites the header and replaces every line in one transaction.
func (r *PGRepository) Update(ctx context.Context, inv Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invoices SET
				name = $3, issuer_name = $4, issuer_address = $5, client_name = $6, client_address = $7,
				invoice_date = $8, due_date = $9, vat_active = $10, vat_rate = $11, updated_at = $12
			WHERE id = $1 AND owner_id = $2`,
			inv.ID, inv.OwnerID, inv.Name, inv.IssuerName, inv.IssuerAddress, inv.ClientName, inv.ClientAddress,
			nullDate(inv.InvoiceDate), nullDate(inv.DueDate), inv.VATActive, inv.VATRate, inv.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("invoice: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("invoice: clear lines: %w", err)
		}
		batch := &pgx.Batch{}
		for i, line := range inv.Lines {
			batch.Queue(`INSERT INTO invoice_lines (invoice_id, position, description, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`,
				inv.ID, i, line.Description, line.Quantity, line.UnitPrice)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("invoice: insert lines: %w", err)
		}
		return nil
	})
}

// Delete removes an invoice; lines cascade.
func (r *PGRepository) Delete(ctx context.Context, ownerID int64, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("invoice: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func dateValue(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}

var _ Repository = (*PGRepository)(nil)
