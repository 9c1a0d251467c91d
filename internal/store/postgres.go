package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/paste-go/internal/paste"
)

// PostgresStore is a PostgreSQL implementation of paste.Repository.
//
// Expected schema:
//
//	CREATE TABLE pastes (
//	    id             TEXT PRIMARY KEY,
//	    content        TEXT        NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    expires_at     TIMESTAMPTZ,
//	    max_reads      BIGINT,
//	    reads_consumed BIGINT      NOT NULL DEFAULT 0
//	)
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed paste store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, record *paste.Paste) error {
	query := `
		INSERT INTO pastes (id, content, created_at, expires_at, max_reads, reads_consumed)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		string(record.ID),
		record.Content,
		record.CreatedAt,
		record.ExpiresAt,
		record.MaxReads,
	)
	if err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return paste.ErrDuplicateID
	}

	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id paste.ID) (*paste.Paste, error) {
	query := `
		SELECT content, created_at, expires_at, max_reads, reads_consumed
		FROM pastes
		WHERE id = $1
	`

	record := &paste.Paste{ID: id}

	err := p.pool.QueryRow(ctx, query, string(id)).Scan(
		&record.Content,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.MaxReads,
		&record.ReadsConsumed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, paste.ErrNotFound
		}

		return nil, fmt.Errorf("postgres get: %w", err)
	}

	return record, nil
}

func (p *PostgresStore) ConsumeRead(ctx context.Context, id paste.ID) (*paste.Paste, error) {
	// The budget predicate and the increment are one statement, so the
	// row lock makes this indivisible with respect to other readers.
	query := `
		UPDATE pastes
		SET reads_consumed = reads_consumed + 1
		WHERE id = $1 AND (max_reads IS NULL OR reads_consumed < max_reads)
		RETURNING content, created_at, expires_at, max_reads, reads_consumed
	`

	record := &paste.Paste{ID: id}

	err := p.pool.QueryRow(ctx, query, string(id)).Scan(
		&record.Content,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.MaxReads,
		&record.ReadsConsumed,
	)
	if err == nil {
		return record, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres consume: %w", err)
	}

	// No row updated: either the id does not exist or the budget is spent.
	// The distinction only feeds diagnostics; the serving decision was
	// already made by the conditional update.
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pastes WHERE id = $1)`, string(id),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("postgres consume: %w", err)
	}

	if exists {
		return nil, paste.ErrBudgetExhausted
	}

	return nil, paste.ErrNotFound
}

// DeleteDead removes expired and exhausted rows.
func (p *PostgresStore) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM pastes
		WHERE (expires_at IS NOT NULL AND expires_at <= $1)
		   OR (max_reads IS NOT NULL AND reads_consumed >= max_reads)
	`

	tag, err := p.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("postgres delete dead: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Compile-time checks.
var (
	_ paste.Repository  = (*PostgresStore)(nil)
	_ paste.DeadSweeper = (*PostgresStore)(nil)
)
