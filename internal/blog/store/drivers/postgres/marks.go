package postgres

import (
	"context"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

const (
	likesTable     = "post_likes"
	favoritesTable = "post_favorites"
)

// marksRepo serves both join tables; table is one of the constants above.
type marksRepo struct {
	db    DBTX
	table string
}

func (r *marksRepo) Add(ctx context.Context, postID, userID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO `+r.table+` (post_id, user_id) VALUES ($1, $2)`, postID, userID)
	return mapConstraint(err)
}

func (r *marksRepo) Remove(ctx context.Context, postID, userID int64) error {
	return expectOne(r.db.Exec(ctx,
		`DELETE FROM `+r.table+` WHERE post_id = $1 AND user_id = $2`, postID, userID))
}

func (r *marksRepo) Has(ctx context.Context, postID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE post_id = $1 AND user_id = $2)`,
		postID, userID).Scan(&exists)
	return exists, err
}

func (r *marksRepo) Count(ctx context.Context, postID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.table+` WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (r *marksRepo) PostsByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	return queryPosts(ctx, r.db,
		postSelect+` JOIN `+r.table+` m ON m.post_id = p.id
		 WHERE m.user_id = $1 ORDER BY m.created_at DESC, p.id DESC`, userID)
}
