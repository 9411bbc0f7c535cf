package repository

import (
	"context"
	"time"

	"github.com/akinalp/lectern/models"
)

// SessionRepository stores refresh-token sessions keyed by token hash.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// Consume deletes the session with tokenHash and returns it, so each
	// refresh token can be redeemed at most once even under concurrent
	// requests. Unknown hashes yield pkg.ErrNotFound.
	Consume(ctx context.Context, tokenHash string) (*models.Session, error)
	// RevokeAll ends every session of a user.
	RevokeAll(ctx context.Context, userID string) error
	// PruneExpired removes the user's sessions that expired before now and
	// reports how many went.
	PruneExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
