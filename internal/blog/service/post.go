package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/internal/blog/store"
	"github.com/aussiebroadwan/blog/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PostInput struct {
	Title   string
	Content string
}

func (in PostInput) normalize() (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return in, ErrPostInvalid
	}
	return in, nil
}

// PostService handles post CRUD plus likes and favorites. Only a post's
// author may change or delete it.
type PostService struct {
	Store store.Store
	Now   func() time.Time // defaults to time.Now
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.Store.Posts().ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (domain.Post, error) {
	return getPost(ctx, s.Store, id)
}

func (s *PostService) Create(ctx context.Context, author domain.User, in PostInput) (domain.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Create")
	defer span.End()

	in, err := in.normalize()
	if err != nil {
		return domain.Post{}, err
	}

	var created domain.Post
	err = s.Store.WithTx(ctx, func(tx store.Store) error {
		now := s.now()
		id, err := tx.Posts().CreatePost(ctx, domain.Post{
			Title:     in.Title,
			Content:   in.Content,
			AuthorID:  author.ID,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return upstream(span, err)
		}
		created, err = getPost(ctx, tx, id)
		return err
	})
	if err != nil {
		return domain.Post{}, err
	}

	span.SetAttributes(attribute.Int64("post.id", created.ID))
	slogx.FromContext(ctx).Info("post created", slog.Int64("post_id", created.ID))
	return created, nil
}

// Update fails with ErrCannotUpdate both when the post is missing and
// when author did not write it.
func (s *PostService) Update(ctx context.Context, author domain.User, id int64, in PostInput) (domain.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Update", trace.WithAttributes(attribute.Int64("post.id", id)))
	defer span.End()

	in, err := in.normalize()
	if err != nil {
		return domain.Post{}, err
	}

	var updated domain.Post
	err = s.Store.WithTx(ctx, func(tx store.Store) error {
		err := tx.Posts().UpdatePost(ctx, domain.Post{
			ID:        id,
			Title:     in.Title,
			Content:   in.Content,
			AuthorID:  author.ID,
			UpdatedAt: s.now(),
		})
		if errors.Is(err, store.ErrNotFound) {
			return ErrCannotUpdate
		}
		if err != nil {
			return upstream(span, err)
		}
		updated, err = getPost(ctx, tx, id)
		return err
	})
	if err != nil {
		return domain.Post{}, err
	}
	return updated, nil
}

// Delete removes the post and returns it as it was just before deletion.
func (s *PostService) Delete(ctx context.Context, author domain.User, id int64) (domain.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Delete", trace.WithAttributes(attribute.Int64("post.id", id)))
	defer span.End()

	var deleted domain.Post
	err := s.Store.WithTx(ctx, func(tx store.Store) error {
		p, err := getPost(ctx, tx, id)
		if errors.Is(err, ErrPostNotFound) || (err == nil && p.AuthorID != author.ID) {
			return ErrCannotDelete
		}
		if err != nil {
			return err
		}
		if err := tx.Posts().DeletePost(ctx, id, author.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCannotDelete
			}
			return upstream(span, err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	slogx.FromContext(ctx).Info("post deleted", slog.Int64("post_id", id))
	return deleted, nil
}

// Like records u's like. Authors cannot like their own posts.
func (s *PostService) Like(ctx context.Context, u domain.User, postID int64) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		p, err := getPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if p.AuthorID == u.ID {
			return ErrOwnPost
		}
		err = tx.Likes().Add(ctx, postID, u.ID)
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyLiked
		}
		return wrapUpstream(err)
	})
}

func (s *PostService) Unlike(ctx context.Context, u domain.User, postID int64) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		p, err := getPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if p.AuthorID == u.ID {
			return ErrOwnPostUnlike
		}
		return removeMark(ctx, tx.Likes(), postID, u.ID, ErrNoLikes, ErrNotLiked)
	})
}

func (s *PostService) LikedPosts(ctx context.Context, u domain.User) ([]domain.Post, error) {
	posts, err := s.Store.Likes().PostsByUser(ctx, u.ID)
	if err != nil {
		return nil, wrapUpstream(err)
	}
	return posts, nil
}

// Favorite bookmarks a post for u. Unlike likes, authors may favorite
// their own posts.
func (s *PostService) Favorite(ctx context.Context, u domain.User, postID int64) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		if _, err := getPost(ctx, tx, postID); err != nil {
			return err
		}
		err := tx.Favorites().Add(ctx, postID, u.ID)
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyFavorited
		}
		return wrapUpstream(err)
	})
}

func (s *PostService) Unfavorite(ctx context.Context, u domain.User, postID int64) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		if _, err := getPost(ctx, tx, postID); err != nil {
			return err
		}
		return removeMark(ctx, tx.Favorites(), postID, u.ID, ErrNoFavorites, ErrNotFavorited)
	})
}

func (s *PostService) FavoritePosts(ctx context.Context, u domain.User) ([]domain.Post, error) {
	posts, err := s.Store.Favorites().PostsByUser(ctx, u.ID)
	if err != nil {
		return nil, wrapUpstream(err)
	}
	return posts, nil
}

// removeMark distinguishes a post nobody marked (empty) from one that
// others marked but userID did not (notMine).
func removeMark(ctx context.Context, marks store.Marks, postID, userID int64, empty, notMine error) error {
	n, err := marks.Count(ctx, postID)
	if err != nil {
		return wrapUpstream(err)
	}
	if n == 0 {
		return empty
	}
	err = marks.Remove(ctx, postID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return notMine
	}
	return wrapUpstream(err)
}

func getPost(ctx context.Context, st store.Store, id int64) (domain.Post, error) {
	p, err := st.Posts().GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Post{}, ErrPostNotFound
	}
	if err != nil {
		return domain.Post{}, wrapUpstream(err)
	}
	return p, nil
}

func wrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
