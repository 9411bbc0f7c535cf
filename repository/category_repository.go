package repository

import (
	"context"

	"github.com/akinalp/lectern/models"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	// ListWithCourseCounts returns every category ordered by title, with
	// TotalCourses filled in.
	ListWithCourseCounts(ctx context.Context) ([]models.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}
