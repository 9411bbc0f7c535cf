package repository

import (
	"context"

	"github.com/akinalp/lectern/models"
)

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Course, error)
	// ListWithModuleCounts returns courses newest first with TotalModules
	// filled in. An empty categoryID lists every category.
	ListWithModuleCounts(ctx context.Context, categoryID string) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}
