package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type invoiceRepositoryImpl struct {
	db *database.DB
}

func NewInvoiceRepository(db *database.DB) invoice.InvoiceRepository {
	return &invoiceRepositoryImpl{db: db}
}

const invoiceColumns = `
	i.id, i.company_id, i.contractor_id, i.number, i.period_start, i.period_end,
	i.items, i.total, i.currency, i.notes, i.status, i.rejection_reason,
	i.submitted_at, i.approved_by, i.approved_at, i.paid_at, i.created_at, i.updated_at,
	u.name, c.user_id`

const invoiceFrom = `
	FROM invoices i
	JOIN contractors c ON c.id = i.contractor_id
	JOIN users u ON u.id = c.user_id`

func scanInvoice(row pgx.Row) (invoice.Invoice, error) {
	var inv invoice.Invoice
	var items []byte
	err := row.Scan(
		&inv.ID,
		&inv.CompanyID,
		&inv.ContractorID,
		&inv.Number,
		&inv.PeriodStart,
		&inv.PeriodEnd,
		&items,
		&inv.Total,
		&inv.Currency,
		&inv.Notes,
		&inv.Status,
		&inv.RejectionReason,
		&inv.SubmittedAt,
		&inv.ApprovedBy,
		&inv.ApprovedAt,
		&inv.PaidAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
		&inv.ContractorName,
		&inv.ContractorUserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invoice.Invoice{}, invoice.ErrInvoiceNotFound
		}
		return invoice.Invoice{}, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return invoice.Invoice{}, fmt.Errorf("failed to decode invoice items: %w", err)
	}
	return inv, nil
}

func itemsJSON(items []invoice.LineItem) ([]byte, error) {
	if items == nil {
		items = []invoice.LineItem{}
	}
	return json.Marshal(items)
}

func (r *invoiceRepositoryImpl) Create(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	items, err := itemsJSON(inv.Items)
	if err != nil {
		return invoice.Invoice{}, err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO invoices (
			company_id, contractor_id, number, period_start, period_end,
			items, total, currency, notes, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		inv.CompanyID,
		inv.ContractorID,
		inv.Number,
		inv.PeriodStart,
		inv.PeriodEnd,
		items,
		inv.Total,
		inv.Currency,
		inv.Notes,
		inv.Status,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

// GetByID locks the invoice row for the rest of the surrounding transaction.
func (r *invoiceRepositoryImpl) GetByID(ctx context.Context, id string) (invoice.Invoice, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + invoiceColumns + invoiceFrom + ` WHERE i.id = $1 FOR UPDATE OF i`
	return scanInvoice(q.QueryRow(ctx, query, id))
}

func (r *invoiceRepositoryImpl) UpdateContent(ctx context.Context, inv invoice.Invoice) error {
	q := GetQuerier(ctx, r.db)

	items, err := itemsJSON(inv.Items)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE invoices
		SET period_start = $1,
		    period_end = $2,
		    items = $3,
		    total = $4,
		    notes = $5,
		    updated_at = NOW()
		WHERE id = $6 AND status IN ('draft', 'rejected')
	`, inv.PeriodStart, inv.PeriodEnd, items, inv.Total, inv.Notes, inv.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return invoice.ErrInvoiceNotEditable
	}
	return nil
}

func (r *invoiceRepositoryImpl) UpdateStatus(ctx context.Context, inv invoice.Invoice) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE invoices
		SET status = $1,
		    rejection_reason = $2,
		    submitted_at = $3,
		    approved_by = $4,
		    approved_at = $5,
		    paid_at = $6,
		    updated_at = NOW()
		WHERE id = $7
	`,
		inv.Status,
		inv.RejectionReason,
		inv.SubmittedAt,
		inv.ApprovedBy,
		inv.ApprovedAt,
		inv.PaidAt,
		inv.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return invoice.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepositoryImpl) List(ctx context.Context, filter invoice.InvoiceFilter) ([]invoice.Invoice, int64, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("i.company_id = ?", filter.CompanyID)
	if filter.ContractorID != nil {
		w.add("i.contractor_id = ?", *filter.ContractorID)
	}
	if filter.Status != nil {
		w.add("i.status = ?", *filter.Status)
	}
	if filter.ExcludeDraft {
		w.add("i.status <> 'draft'")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := `SELECT ` + invoiceColumns + invoiceFrom + ` ` + w.sql() +
		` ORDER BY i.created_at DESC` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices := make([]invoice.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// NextSequence hands out the contractor's next invoice number. The row lock
// taken by the upsert serializes concurrent callers.
func (r *invoiceRepositoryImpl) NextSequence(ctx context.Context, contractorID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var next int
	err := q.QueryRow(ctx, `
		INSERT INTO invoice_sequences (contractor_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (contractor_id) DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value
	`, contractorID).Scan(&next)
	return next, err
}

func (r *invoiceRepositoryImpl) TotalsByStatus(ctx context.Context, contractorID string) ([]invoice.StatusTotals, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE contractor_id = $1
		GROUP BY status
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]invoice.StatusTotals, 0, 5)
	for rows.Next() {
		var t invoice.StatusTotals
		if err := rows.Scan(&t.Status, &t.Count, &t.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *invoiceRepositoryImpl) CountSubmitted(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var n int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE company_id = $1 AND status = 'submitted'`,
		companyID,
	).Scan(&n)
	return n, err
}
