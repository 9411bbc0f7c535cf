package repository

import (
	"context"
	"time"

	"github.com/akinalp/lectern/models"
)

// PasswordResetRepository keeps at most one live reset token per user.
type PasswordResetRepository interface {
	// Replace drops the user's earlier tokens and stores token.
	Replace(ctx context.Context, token *models.PasswordResetToken) error
	// Consume deletes the token with tokenHash, together with any other
	// token of the same user, and returns it. Unknown hashes yield
	// pkg.ErrNotFound.
	Consume(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	// LastIssuedAt reports when the user's current token was created.
	LastIssuedAt(ctx context.Context, userID string) (time.Time, bool, error)
}
