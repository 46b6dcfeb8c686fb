// Package postgres holds the PostgreSQL-backed user store used by the login check.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricescan/backend/internal/domain"
)

const findUserSQL = `SELECT username, password FROM users WHERE username = $1 LIMIT 1`

// Querier is the part of *pgxpool.Pool the repository uses
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open creates a bounded connection pool. It does not wait for the server.
func Open(ctx context.Context, dsn string, maxConns int32, idleTimeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	cfg.MaxConns = maxConns
	if idleTimeout > 0 {
		cfg.MaxConnIdleTime = idleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return pool, nil
}

// Ping runs the startup smoke test query
func Ping(ctx context.Context, db Querier) error {
	var ok int
	if err := db.QueryRow(ctx, "SELECT 1 AS ok").Scan(&ok); err != nil {
		return fmt.Errorf("smoke test: %w", err)
	}
	if ok != 1 {
		return fmt.Errorf("smoke test: unexpected result %d", ok)
	}
	return nil
}

// UserRepository looks users up in the users table
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a repository over db
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns the user row or domain.ErrUserNotFound
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, findUserSQL, username).Scan(&user.Username, &user.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
