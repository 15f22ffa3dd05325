package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the pool subset the repository needs; pgxmock satisfies it.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists invoices and payments.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by pgx.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("billing: pgx pool required")
	}
	return &Repository{pool: pool}
}

const invoiceColumns = `id, invoice_number, patient_id, issue_date, due_date, total_amount, amount_paid, status, created_at`

func scanInvoice(row pgx.Row, inv *Invoice) error {
	return row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.PatientID, &inv.IssueDate, &inv.DueDate,
		&inv.TotalAmount, &inv.AmountPaid, &inv.Status, &inv.CreatedAt,
	)
}

// GetInvoice fetches an invoice with its line items.
func (r *Repository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if err := scanInvoice(r.pool.QueryRow(ctx, query, id), &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("billing: select invoice failed: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, service_name, quantity, price FROM invoice_items WHERE invoice_id = $1 ORDER BY service_name ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("billing: select items failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ServiceName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("billing: scan item failed: %w", err)
		}
		inv.Items = append(inv.Items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("billing: rows failed: %w", err)
	}
	return &inv, nil
}

// ListInvoices returns invoice summaries, optionally scoped to one patient,
// newest first.
func (r *Repository) ListInvoices(ctx context.Context, patientID string) ([]*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	if patientID != "" {
		query += ` WHERE patient_id = $1`
		args = append(args, patientID)
	}
	query += ` ORDER BY issue_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list invoices failed: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("billing: scan invoice failed: %w", err)
		}
		out = append(out, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("billing: rows failed: %w", err)
	}
	return out, nil
}

// RecordPayment inserts a payment row and applies it to the parent invoice
// inside one transaction. The invoice row is locked for the duration so two
// concurrent payments cannot double-count; the balance check is repeated
// under the lock before anything is written.
func (r *Repository) RecordPayment(ctx context.Context, invoiceID string, req *SubmitPaymentRequest, proofURL string) (*Payment, *Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("billing: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inv Invoice
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	if err := scanInvoice(tx.QueryRow(ctx, query, invoiceID), &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInvoiceNotFound
		}
		return nil, nil, fmt.Errorf("billing: lock invoice failed: %w", err)
	}

	if req.Amount > inv.Remaining() {
		return nil, nil, ErrAmountExceedsBalance
	}

	payment := &Payment{
		ID:              uuid.New().String(),
		InvoiceID:       invoiceID,
		Amount:          req.Amount,
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		ProofURL:        proofURL,
		ApprovalStatus:  ApprovalPending,
	}
	insert := `
		INSERT INTO payments (id, invoice_id, amount, method, reference_number, notes, proof_url, doctor_approval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, insert,
		payment.ID, payment.InvoiceID, payment.Amount, payment.Method,
		payment.ReferenceNumber, payment.Notes, payment.ProofURL, payment.ApprovalStatus,
	).Scan(&payment.CreatedAt); err != nil {
		return nil, nil, fmt.Errorf("billing: insert payment failed: %w", err)
	}

	inv.AmountPaid += req.Amount
	if inv.AmountPaid >= inv.TotalAmount {
		inv.Status = InvoicePaid
	} else {
		inv.Status = InvoicePartial
	}
	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET amount_paid = $2, status = $3 WHERE id = $1`,
		invoiceID, inv.AmountPaid, inv.Status,
	); err != nil {
		return nil, nil, fmt.Errorf("billing: update invoice failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("billing: commit failed: %w", err)
	}
	return payment, &inv, nil
}

const paymentColumns = `id, invoice_id, amount, method, reference_number, COALESCE(notes, ''),
		COALESCE(proof_url, ''), COALESCE(doctor_approval_status, ''), COALESCE(approval_status, ''), created_at`

func scanPayment(row pgx.Row, p *Payment) error {
	return row.Scan(
		&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.ReferenceNumber, &p.Notes,
		&p.ProofURL, &p.ApprovalStatus, &p.LegacyApproval, &p.CreatedAt,
	)
}

// GetPayment fetches a payment by id.
func (r *Repository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var p Payment
	if err := scanPayment(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("billing: select payment failed: %w", err)
	}
	return &p, nil
}

// ListPayments returns payments, optionally filtered by invoice, newest
// first.
func (r *Repository) ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	args := []any{}
	if invoiceID != "" {
		query += ` WHERE invoice_id = $1`
		args = append(args, invoiceID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list payments failed: %w", err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		var p Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("billing: scan payment failed: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("billing: rows failed: %w", err)
	}
	return out, nil
}

// SetApproval writes the doctor approval decision to the dedicated column.
func (r *Repository) SetApproval(ctx context.Context, paymentID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET doctor_approval_status = $2 WHERE id = $1`, paymentID, status)
	if err != nil {
		return fmt.Errorf("billing: set approval failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
