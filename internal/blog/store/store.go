package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// Uniqueness violations on users. They wrap ErrAlreadyExists.
	ErrDuplicateUsername = fmt.Errorf("%w: username", ErrAlreadyExists)
	ErrDuplicateEmail    = fmt.Errorf("%w: email", ErrAlreadyExists)
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose one sub-repository per table group.
type Store interface {
	Users() Users
	Posts() Posts
	Likes() Marks
	Favorites() Marks

	ApplyMigrations() error

	// WithTx runs fn inside a read/write transaction. fn's error rolls back,
	// nil commits. The Store passed to fn is only valid inside fn; calling
	// WithTx on it runs in the same transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u and returns the id the database assigned.
	// Fails with ErrDuplicateUsername or ErrDuplicateEmail when a unique
	// constraint is hit.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdatePasswordHash sets password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error

	// DeleteUser cascades to the user's posts, likes and favorites.
	DeleteUser(ctx context.Context, userID int64) error

	// UpdateMFASecret stores a pending (not yet enabled) TOTP secret.
	UpdateMFASecret(ctx context.Context, userID int64, secret string) error

	// EnableMFA stamps mfa_enabled_at.
	EnableMFA(ctx context.Context, userID int64) error

	// DisableMFA clears both the secret and mfa_enabled_at.
	DisableMFA(ctx context.Context, userID int64) error
}

type Posts interface {
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (domain.Post, error)

	// CreatePost inserts p and returns the assigned id.
	CreatePost(ctx context.Context, p domain.Post) (int64, error)

	// UpdatePost overwrites title and content of the post matching both
	// p.ID and p.AuthorID. ErrNotFound when no such row exists.
	UpdatePost(ctx context.Context, p domain.Post) error

	// DeletePost removes the post only when authorID wrote it.
	// ErrNotFound otherwise.
	DeletePost(ctx context.Context, id, authorID int64) error
}

// Marks is a (post, user) join table: likes or favorites.
type Marks interface {
	// Add fails with ErrAlreadyExists when the pair is already present.
	Add(ctx context.Context, postID, userID int64) error

	// Remove fails with ErrNotFound when the pair is absent.
	Remove(ctx context.Context, postID, userID int64) error

	Has(ctx context.Context, postID, userID int64) (bool, error)
	Count(ctx context.Context, postID int64) (int, error)

	// PostsByUser returns the posts userID has marked, most recent mark first.
	PostsByUser(ctx context.Context, userID int64) ([]domain.Post, error)
}
