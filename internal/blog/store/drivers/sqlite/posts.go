package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

// postSelect yields posts with their like and favorite counts.
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
	var (
		p                    domain.Post
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Likes, &p.Favorites, &createdAt, &updatedAt); err != nil {
		return domain.Post{}, mapNotFound(err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func queryPosts(ctx context.Context, db DBTX, query string, args ...any) ([]domain.Post, error) {
	rows, err := db.QueryContext(ctx, query, args...)
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

func (r *postsRepo) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return queryPosts(ctx, r.db, postSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

func (r *postsRepo) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	return scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id))
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) (int64, error) {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (title, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.Title, p.Content, p.AuthorID, toMillis(created), toMillis(created),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *postsRepo) UpdatePost(ctx context.Context, p domain.Post) error {
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ? AND author_id = ?`,
		p.Title, p.Content, toMillis(updated), p.ID, p.AuthorID))
}

func (r *postsRepo) DeletePost(ctx context.Context, id, authorID int64) error {
	return expectOne(r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ? AND author_id = ?`, id, authorID))
}
