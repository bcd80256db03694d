package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

const (
	likesTable     = "post_likes"
	favoritesTable = "post_favorites"
)

// marksRepo serves both join tables. table is always one of the constants
// above, never caller input.
type marksRepo struct {
	db    DBTX
	table string
}

func (r *marksRepo) Add(ctx context.Context, postID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (post_id, user_id, created_at) VALUES (?, ?, ?)`,
		postID, userID, toMillis(time.Now()))
	return mapConstraint(err)
}

func (r *marksRepo) Remove(ctx context.Context, postID, userID int64) error {
	return expectOne(r.db.ExecContext(ctx,
		`DELETE FROM `+r.table+` WHERE post_id = ? AND user_id = ?`, postID, userID))
}

func (r *marksRepo) Has(ctx context.Context, postID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE post_id = ? AND user_id = ?)`,
		postID, userID).Scan(&exists)
	return exists, err
}

func (r *marksRepo) Count(ctx context.Context, postID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+r.table+` WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}

func (r *marksRepo) PostsByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	return queryPosts(ctx, r.db,
		postSelect+` JOIN `+r.table+` m ON m.post_id = p.id
		 WHERE m.user_id = ? ORDER BY m.created_at DESC, p.id DESC`, userID)
}
