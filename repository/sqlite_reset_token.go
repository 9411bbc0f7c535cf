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

type sqliteResetTokenRepo struct {
	db database.TxQuerier
}

func NewSQLiteResetTokenRepo(db database.TxQuerier) PasswordResetRepository {
	return &sqliteResetTokenRepo{db: db}
}

func (r *sqliteResetTokenRepo) Replace(ctx context.Context, token *models.PasswordResetToken) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = ?`, token.UserID); err != nil {
		return fmt.Errorf("failed to drop old reset tokens: %w", err)
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
		VALUES (?, ?, ?)
		RETURNING id, created_at`,
		token.UserID, token.TokenHash, token.ExpiresAt.UTC(),
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *sqliteResetTokenRepo) Consume(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	token := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM password_reset_tokens WHERE token_hash = ?
		RETURNING id, user_id, token_hash, expires_at, created_at`,
		tokenHash,
	).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reset token", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = ?`, token.UserID); err != nil {
		return nil, fmt.Errorf("failed to drop sibling reset tokens: %w", err)
	}
	return token, nil
}

func (r *sqliteResetTokenRepo) LastIssuedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	var issued time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT created_at FROM password_reset_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC LIMIT 1`, userID).Scan(&issued)

	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read reset token time: %w", err)
	}
	return issued, true, nil
}
