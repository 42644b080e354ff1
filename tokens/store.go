package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// queryTimeout bounds every store call so a stalled database cannot hold
// an HTTP request open indefinitely.
const queryTimeout = 5 * time.Second

// Store is the persistence surface the token service depends on.
type Store interface {
	Insert(ctx context.Context, t LinkToken) error
	FindByToken(ctx context.Context, token string) (LinkToken, error)
	// CompleteIfIssued flips the row to completed only when it is still
	// issued, reporting whether this call performed the transition.
	CompleteIfIssued(ctx context.Context, token, sessionID string, completedAt time.Time) (bool, error)
}

// PostgresStore persists link tokens in the link_tokens table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an established sqlx connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, t LinkToken) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		INSERT INTO link_tokens (token, tg_chat_id, source, campaign, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, q, t.Token, t.ChatID, t.Source, t.Campaign, t.Status, t.CreatedAt); err != nil {
		return fmt.Errorf("tokens: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (LinkToken, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		SELECT id, token, tg_chat_id, source, campaign, status, created_at, completed_at, session_id
		FROM link_tokens
		WHERE token = $1
		ORDER BY created_at DESC
		LIMIT 1`
	var row LinkToken
	if err := s.db.GetContext(ctx, &row, q, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LinkToken{}, ErrTokenNotFound
		}
		return LinkToken{}, fmt.Errorf("tokens: find: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) CompleteIfIssued(ctx context.Context, token, sessionID string, completedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		UPDATE link_tokens
		SET status = $2, completed_at = $3, session_id = $4
		WHERE token = $1 AND status = $5`
	res, err := s.db.ExecContext(ctx, q, token, StatusCompleted, completedAt, sessionID, StatusIssued)
	if err != nil {
		return false, fmt.Errorf("tokens: complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("tokens: complete: rows affected: %w", err)
	}
	return n > 0, nil
}
