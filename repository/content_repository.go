package repository

import (
	"context"

	"github.com/akinalp/lectern/models"
)

// ContentRepository stores contents together with the items they place.
type ContentRepository interface {
	// Create inserts content.Item and then content in one transaction.
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, id string) (*models.Content, error)
	// ListByModule returns a module's contents in position order.
	ListByModule(ctx context.Context, moduleID string) ([]models.Content, error)
	// ListByCourse returns every content of a course, ordered by module
	// position then content position.
	ListByCourse(ctx context.Context, courseID string) ([]models.Content, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	// Delete removes the content; its item goes with it.
	Delete(ctx context.Context, id string) error

	MaxPosition(ctx context.Context, scope models.ContentScope) (int, error)
	UpdatePositionOwned(ctx context.Context, ownerID, id string, position int) (bool, error)
}
