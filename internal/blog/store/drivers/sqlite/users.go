package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

const userColumns = `id, username, email, full_name, password_hash, mfa_secret, mfa_enabled_at, created_at, updated_at`

type usersRepo struct {
	db DBTX
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		secret               sql.NullString
		enabledAt            sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&secret, &enabledAt, &createdAt, &updatedAt,
	); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.MFASecret = nullString(secret)
	u.MFAEnabledAt = fromNullMillis(enabledAt)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, full_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.FullName, u.PasswordHash, toMillis(created), toMillis(created),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, toMillis(time.Now()), userID))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID int64) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID))
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID int64, secret string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, mfa_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		secret, toMillis(time.Now()), userID))
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID int64) error {
	now := toMillis(time.Now())
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled_at = ?, updated_at = ? WHERE id = ? AND mfa_secret IS NOT NULL`,
		now, now, userID))
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID int64) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET mfa_secret = NULL, mfa_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		toMillis(time.Now()), userID))
}
