package repository

import (
	"context"

	"github.com/akinalp/lectern/models"
)

type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id string) (*models.Module, error)
	// ListByCourse returns a course's modules in position order.
	ListByCourse(ctx context.Context, courseID string) ([]models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id string) error

	// MaxPosition returns the highest module position in the course, or -1
	// when the course has no modules.
	MaxPosition(ctx context.Context, scope models.ModuleScope) (int, error)
	// UpdatePositionOwned moves a module only when its course belongs to
	// ownerID. It reports whether the module was matched.
	UpdatePositionOwned(ctx context.Context, ownerID, id string, position int) (bool, error)
}
