package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/blog/internal/blog/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users     { return &usersRepo{db: t.tx} }
func (t *txStore) Posts() store.Posts     { return &postsRepo{db: t.tx} }
func (t *txStore) Likes() store.Marks     { return &marksRepo{db: t.tx, table: likesTable} }
func (t *txStore) Favorites() store.Marks { return &marksRepo{db: t.tx, table: favoritesTable} }

// WithTx joins the running transaction.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

// Close is a no-op, the outer Store owns the connection.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// ApplyMigrations is a no-op inside a transaction.
func (t *txStore) ApplyMigrations() error { return nil }
