package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type contractorRepositoryImpl struct {
	db *database.DB
}

func NewContractorRepository(db *database.DB) contractor.ContractorRepository {
	return &contractorRepositoryImpl{db: db}
}

const contractorColumns = `
	c.id, c.user_id, c.company_id, c.specialty, c.hourly_rate, c.currency,
	c.contract_start, c.contract_end, c.status, c.created_at, c.updated_at,
	u.name, u.email`

const contractorFrom = `
	FROM contractors c
	JOIN users u ON u.id = c.user_id`

func scanContractor(row pgx.Row) (contractor.Contractor, error) {
	var c contractor.Contractor
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CompanyID,
		&c.Specialty,
		&c.HourlyRate,
		&c.Currency,
		&c.ContractStart,
		&c.ContractEnd,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.FullName,
		&c.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contractor.Contractor{}, contractor.ErrContractorNotFound
		}
		return contractor.Contractor{}, err
	}
	return c, nil
}

func (r *contractorRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (contractor.Contractor, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + contractorColumns + contractorFrom + ` WHERE c.id = $1 AND c.company_id = $2`
	return scanContractor(q.QueryRow(ctx, query, id, companyID))
}

func (r *contractorRepositoryImpl) GetByUserID(ctx context.Context, userID string) (contractor.Contractor, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + contractorColumns + contractorFrom + ` WHERE c.user_id = $1 AND u.deleted_at IS NULL`
	return scanContractor(q.QueryRow(ctx, query, userID))
}

func (r *contractorRepositoryImpl) Create(ctx context.Context, c contractor.Contractor) (contractor.Contractor, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO contractors (
			user_id, company_id, specialty, hourly_rate, currency, contract_start, contract_end, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		c.UserID,
		c.CompanyID,
		c.Specialty,
		c.HourlyRate,
		c.Currency,
		c.ContractStart,
		c.ContractEnd,
		c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return contractor.Contractor{}, err
	}
	return c, nil
}

func (r *contractorRepositoryImpl) Update(ctx context.Context, companyID, id string, req contractor.UpdateContractorRequest) (contractor.Contractor, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE contractors
		SET specialty = COALESCE($1, specialty),
		    hourly_rate = COALESCE($2, hourly_rate),
		    currency = COALESCE($3, currency),
		    contract_start = COALESCE($4, contract_start),
		    contract_end = COALESCE($5, contract_end),
		    status = COALESCE($6, status),
		    updated_at = NOW()
		WHERE id = $7 AND company_id = $8
	`,
		req.Specialty,
		req.HourlyRateValue,
		req.Currency,
		req.ContractStartValue,
		req.ContractEndValue,
		req.Status,
		id,
		companyID,
	)
	if err != nil {
		return contractor.Contractor{}, err
	}
	if tag.RowsAffected() == 0 {
		return contractor.Contractor{}, contractor.ErrContractorNotFound
	}
	return r.GetByID(ctx, companyID, id)
}

func (r *contractorRepositoryImpl) List(ctx context.Context, filter contractor.ContractorFilter) ([]contractor.Contractor, int64, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere("u.deleted_at IS NULL")
	w.add("c.company_id = ?", filter.CompanyID)
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		s := like(*filter.Search)
		w.add("(u.name ILIKE ? OR u.email ILIKE ? OR c.specialty ILIKE ?)", s, s, s)
	}
	if filter.Status != nil {
		w.add("c.status = ?", *filter.Status)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*)`+contractorFrom+` `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contractors: %w", err)
	}

	query := `SELECT ` + contractorColumns + contractorFrom + ` ` + w.sql() +
		` ORDER BY u.name` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contractors := make([]contractor.Contractor, 0)
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, 0, err
		}
		contractors = append(contractors, c)
	}
	return contractors, total, rows.Err()
}

func (r *contractorRepositoryImpl) CountActive(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*)`+contractorFrom+`
		WHERE c.company_id = $1 AND c.status = 'active' AND u.deleted_at IS NULL`,
		companyID,
	).Scan(&n)
	return n, err
}
