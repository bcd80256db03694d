package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

const postSelect = `
SELECT p.id, p.title, p.content, p.author_id,
       (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
       (SELECT COUNT(*) FROM post_favorites f WHERE f.post_id = p.id),
       p.created_at, p.updated_at
FROM posts p`

type postsRepo struct {
	db DBTX
}

func scanPost(row interface{ Scan(...any) error }) (domain.Post, error) {
	var p domain.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Likes, &p.Favorites, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Post{}, mapNotFound(err)
	}
	return p, nil
}

func queryPosts(ctx context.Context, db DBTX, query string, args ...any) ([]domain.Post, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// optionalTime lets the database default apply when t is unset.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *postsRepo) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return queryPosts(ctx, r.db, postSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

func (r *postsRepo) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	return scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO posts (title, content, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, COALESCE($4, now()), COALESCE($4, now()))
		 RETURNING id`,
		p.Title, p.Content, p.AuthorID, optionalTime(p.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *postsRepo) UpdatePost(ctx context.Context, p domain.Post) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE posts SET title = $1, content = $2, updated_at = COALESCE($3, now())
		 WHERE id = $4 AND author_id = $5`,
		p.Title, p.Content, optionalTime(p.UpdatedAt), p.ID, p.AuthorID))
}

func (r *postsRepo) DeletePost(ctx context.Context, id, authorID int64) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID))
}
