package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

type sqliteSessionRepo struct {
	db database.TxQuerier
}

func NewSQLiteSessionRepo(db database.TxQuerier) SessionRepository {
	return &sqliteSessionRepo{db: db}
}

func (r *sqliteSessionRepo) Create(ctx context.Context, session *models.Session) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES (?, ?, ?)
		RETURNING id, created_at`,
		session.UserID, session.TokenHash, session.ExpiresAt.UTC(),
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) Consume(ctx context.Context, tokenHash string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM sessions WHERE token_hash = ?
		RETURNING id, user_id, token_hash, expires_at, created_at`,
		tokenHash,
	).Scan(&session.ID, &session.UserID, &session.TokenHash, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}
	return session, nil
}

func (r *sqliteSessionRepo) RevokeAll(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) PruneExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ? AND expires_at <= ?`, userID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return result.RowsAffected()
}
