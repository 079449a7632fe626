package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	pgSelect = `SELECT category FROM user_sessions
WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > $2)`
	pgUpsert = `INSERT INTO user_sessions (user_id, category, expires_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET category = EXCLUDED.category, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`
	pgDelete = `DELETE FROM user_sessions WHERE user_id = $1`
	pgPurge  = `DELETE FROM user_sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

// PostgresStore keeps sessions in the user_sessions table created by the migrations.
type PostgresStore struct {
	db   *sqlx.DB
	opts Options
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB, opts Options) *PostgresStore {
	return &PostgresStore{db: db, opts: opts}
}

// Get returns the stored category unless it is missing or expired.
func (p *PostgresStore) Get(ctx context.Context, userID string) (string, bool, error) {
	var category string
	err := p.db.GetContext(ctx, &category, pgSelect, userID, p.opts.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: postgres select: %w", ErrBackend, err)
	}
	return category, true, nil
}

// Set upserts the user's row.
func (p *PostgresStore) Set(ctx context.Context, userID, category string) error {
	now := p.opts.now().UTC()
	var expires sql.NullTime
	if p.opts.TTL > 0 {
		expires = sql.NullTime{Time: now.Add(p.opts.TTL), Valid: true}
	}
	if _, err := p.db.ExecContext(ctx, pgUpsert, userID, category, expires, now); err != nil {
		return fmt.Errorf("%w: postgres upsert: %w", ErrBackend, err)
	}
	return nil
}

// Delete removes the user's row.
func (p *PostgresStore) Delete(ctx context.Context, userID string) error {
	if _, err := p.db.ExecContext(ctx, pgDelete, userID); err != nil {
		return fmt.Errorf("%w: postgres delete: %w", ErrBackend, err)
	}
	return nil
}

// PurgeExpired deletes expired rows and reports how many were removed.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, pgPurge, p.opts.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: postgres purge: %w", ErrBackend, err)
	}
	return res.RowsAffected()
}
