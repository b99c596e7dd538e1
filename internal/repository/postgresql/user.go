package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `
	u.id, u.company_id, u.name, u.email, u.password_hash, u.role, u.phone,
	u.avatar_url, u.google_id, u.created_at, u.updated_at, u.deleted_at,
	e.id, c.id`

const userFrom = `
	FROM users u
	LEFT JOIN employees e ON e.user_id = u.id
	LEFT JOIN contractors c ON c.user_id = u.id`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.CompanyID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Phone,
		&u.AvatarURL,
		&u.GoogleID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
		&u.EmployeeID,
		&u.ContractorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *userRepositoryImpl) getOne(ctx context.Context, where string, arg any) (user.User, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + userColumns + userFrom + ` WHERE ` + where + ` AND u.deleted_at IS NULL`
	return scanUser(q.QueryRow(ctx, query, arg))
}

func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, `LOWER(u.email) = LOWER($1)`, email)
}

func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

func (r *userRepositoryImpl) GetByGoogleID(ctx context.Context, googleID string) (user.User, error) {
	return r.getOne(ctx, `u.google_id = $1`, googleID)
}

func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (id, company_id, name, email, password_hash, role, phone, avatar_url, google_id)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	var id *string
	if newUser.ID != "" {
		id = &newUser.ID
	}
	err := q.QueryRow(ctx, query,
		id,
		newUser.CompanyID,
		newUser.Name,
		strings.ToLower(newUser.Email),
		newUser.PasswordHash,
		newUser.Role,
		newUser.Phone,
		newUser.AvatarURL,
		newUser.GoogleID,
	).Scan(&newUser.ID, &newUser.CreatedAt, &newUser.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrUserEmailExists
		}
		return user.User{}, err
	}

	newUser.Email = strings.ToLower(newUser.Email)
	return newUser, nil
}

func (r *userRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL)`,
		email,
	).Scan(&exists)
	return exists, err
}

func (r *userRepositoryImpl) ExistsByRole(ctx context.Context, role user.Role) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE role = $1 AND deleted_at IS NULL)`,
		role,
	).Scan(&exists)
	return exists, err
}

// LinkGoogleAccount attaches a Google identity to the account owning email.
func (r *userRepositoryImpl) LinkGoogleAccount(ctx context.Context, googleID string, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE users
		SET google_id = $1, updated_at = NOW()
		WHERE LOWER(email) = LOWER($2) AND deleted_at IS NULL
	`, googleID, email)
	if err != nil {
		return user.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return user.User{}, user.ErrUserNotFound
	}
	return r.GetByEmail(ctx, email)
}

func (r *userRepositoryImpl) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE users
		SET name = COALESCE($1, name),
		    phone = COALESCE($2, phone),
		    updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`, req.Name, req.Phone, id)
	if err != nil {
		return user.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return user.User{}, user.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *userRepositoryImpl) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, passwordHash, userID)
}

func (r *userRepositoryImpl) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	return r.exec(ctx, `UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, avatarURL, userID)
}

func (r *userRepositoryImpl) SoftDelete(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (r *userRepositoryImpl) exec(ctx context.Context, query string, args ...any) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *userRepositoryImpl) List(ctx context.Context, filter user.UserFilter) ([]user.User, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := newWhere("u.deleted_at IS NULL")
	if filter.Role != nil {
		where.add("u.role = ?", *filter.Role)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		where.add("(u.name ILIKE ? OR u.email ILIKE ?)", like(*filter.Search), like(*filter.Search))
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users u `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + userFrom + ` ` + where.sql() +
		` ORDER BY u.created_at DESC` + where.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *userRepositoryImpl) CountByRole(ctx context.Context) (map[user.Role]int64, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT role, COUNT(*) FROM users WHERE deleted_at IS NULL GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[user.Role]int64, len(user.AllRoles))
	for rows.Next() {
		var role user.Role
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
