package postgres

import (
	"context"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

const userColumns = `id, username, email, full_name, password_hash, mfa_secret, mfa_enabled_at, created_at, updated_at`

type usersRepo struct {
	db DBTX
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.MFASecret, &u.MFAEnabledAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, full_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($5, now()))
		 RETURNING id`,
		u.Username, u.Email, u.FullName, u.PasswordHash, optionalTime(u.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, newHash, userID))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID int64) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID))
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID int64, secret string) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE users SET mfa_secret = $1, mfa_enabled_at = NULL, updated_at = now() WHERE id = $2`,
		secret, userID))
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID int64) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE users SET mfa_enabled_at = now(), updated_at = now() WHERE id = $1 AND mfa_secret IS NOT NULL`,
		userID))
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID int64) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE users SET mfa_secret = NULL, mfa_enabled_at = NULL, updated_at = now() WHERE id = $1`,
		userID))
}
