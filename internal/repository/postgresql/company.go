package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

const companyColumns = `
	id, name, join_code, owner_user_id, address, work_start_time, work_end_time,
	late_grace_minutes, currency, timezone, created_at, updated_at`

func scanCompany(row pgx.Row) (company.Company, error) {
	var c company.Company
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.JoinCode,
		&c.OwnerUserID,
		&c.Address,
		&c.WorkStartTime,
		&c.WorkEndTime,
		&c.LateGraceMinutes,
		&c.Currency,
		&c.Timezone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, err
	}
	return c, nil
}

func (r *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)
	return scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

func (r *companyRepositoryImpl) GetByJoinCode(ctx context.Context, code string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)
	return scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE join_code = UPPER($1)`, code))
}

func (r *companyRepositoryImpl) GetByOwner(ctx context.Context, ownerUserID string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)
	return scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE owner_user_id = $1`, ownerUserID))
}

// Create inserts the company. A join code collision reports
// ErrJoinCodeExists without aborting the surrounding transaction.
func (r *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO companies (
			id, name, join_code, owner_user_id, address, work_start_time, work_end_time,
			late_grace_minutes, currency, timezone
		)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (join_code) DO NOTHING
		RETURNING ` + companyColumns

	var id *string
	if newCompany.ID != "" {
		id = &newCompany.ID
	}
	created, err := scanCompany(q.QueryRow(ctx, query,
		id,
		newCompany.Name,
		newCompany.JoinCode,
		newCompany.OwnerUserID,
		newCompany.Address,
		newCompany.WorkStartTime,
		newCompany.WorkEndTime,
		newCompany.LateGraceMinutes,
		newCompany.Currency,
		newCompany.Timezone,
	))
	if errors.Is(err, company.ErrCompanyNotFound) {
		return company.Company{}, company.ErrJoinCodeExists
	}
	return created, err
}

func (r *companyRepositoryImpl) Update(ctx context.Context, id string, req company.UpdateCompanyRequest) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE companies
		SET name = COALESCE($1, name),
		    address = COALESCE($2, address),
		    work_start_time = COALESCE($3, work_start_time),
		    work_end_time = COALESCE($4, work_end_time),
		    late_grace_minutes = COALESCE($5, late_grace_minutes),
		    currency = COALESCE($6, currency),
		    timezone = COALESCE($7, timezone),
		    updated_at = NOW()
		WHERE id = $8
		RETURNING ` + companyColumns

	return scanCompany(q.QueryRow(ctx, query,
		req.Name,
		req.Address,
		req.WorkStartTime,
		req.WorkEndTime,
		req.LateGraceMinutes,
		req.Currency,
		req.Timezone,
		id,
	))
}

func (r *companyRepositoryImpl) RegenerateJoinCode(ctx context.Context, id, code string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE companies
		SET join_code = $1, updated_at = NOW()
		WHERE id = $2 AND NOT EXISTS (SELECT 1 FROM companies WHERE join_code = $1)
	`, code, id)
	if err != nil {
		if isUniqueViolation(err, "companies_join_code_key") {
			return company.ErrJoinCodeExists
		}
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return company.ErrJoinCodeExists
}

func (r *companyRepositoryImpl) ListAll(ctx context.Context) ([]company.Company, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]company.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *companyRepositoryImpl) Count(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	return n, err
}
