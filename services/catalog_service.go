package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/pkg/cache"
	"github.com/akinalp/lectern/pkg/slug"
	"github.com/akinalp/lectern/repository"
)

// Catalog cache keys. Entries are never invalidated on writes; they age
// out with the backend's TTL.
const (
	keyAllCategories = "all_categories"
	keyAllCourses    = "all_courses"
	kindCategory     = "category_courses"
)

func categoryCoursesKey(categoryID string) string {
	return fmt.Sprintf("category_%s_courses", categoryID)
}

// CatalogPage is the public course listing, optionally narrowed to one
// category.
type CatalogPage struct {
	Categories []models.Category `json:"categories"`
	Category   *models.Category  `json:"category,omitempty"`
	Courses    []models.Course   `json:"courses"`
}

type CatalogService interface {
	// Page lists every course with every category.
	Page(ctx context.Context) (*CatalogPage, error)
	// CategoryPage lists the courses of the category with that slug.
	CategoryPage(ctx context.Context, categorySlug string) (*CatalogPage, error)
	CourseBySlug(ctx context.Context, courseSlug string) (*models.CourseDetail, error)
	CourseByID(ctx context.Context, courseID string) (*models.CourseDetail, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, categoryID string) (*models.Category, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	courseRepo   repository.CourseRepository
	moduleRepo   repository.ModuleRepository
	store        cache.Store
	log          logrus.FieldLogger
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	courseRepo repository.CourseRepository,
	moduleRepo repository.ModuleRepository,
	store cache.Store,
	logger logrus.FieldLogger,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		courseRepo:   courseRepo,
		moduleRepo:   moduleRepo,
		store:        store,
		log:          logger.WithFields(logrus.Fields{"component": "catalog", "cache": store.Name()}),
	}
}

func (s *catalogService) cacheError(key string) func(error) {
	return func(err error) {
		s.log.WithError(err).WithField("key", key).Warn("catalog cache unavailable, served from database")
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cache.ReadThrough(ctx, s.store, keyAllCategories, keyAllCategories,
		func(ctx context.Context) ([]models.Category, error) {
			cats, err := s.categoryRepo.ListWithCourseCounts(ctx)
			if cats == nil {
				cats = []models.Category{}
			}
			return cats, err
		}, s.cacheError(keyAllCategories))
}

func (s *catalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	return s.courses(ctx, keyAllCourses, keyAllCourses, "")
}

func (s *catalogService) courses(ctx context.Context, kind, key, categoryID string) ([]models.Course, error) {
	return cache.ReadThrough(ctx, s.store, kind, key,
		func(ctx context.Context) ([]models.Course, error) {
			courses, err := s.courseRepo.ListWithModuleCounts(ctx, categoryID)
			if courses == nil {
				courses = []models.Course{}
			}
			return courses, err
		}, s.cacheError(key))
}

func (s *catalogService) Page(ctx context.Context) (*CatalogPage, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogPage{Categories: cats, Courses: courses}, nil
}

func (s *catalogService) CategoryPage(ctx context.Context, categorySlug string) (*CatalogPage, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses(ctx, kindCategory, categoryCoursesKey(category.ID), category.ID)
	if err != nil {
		return nil, err
	}

	return &CatalogPage{Categories: cats, Category: category, Courses: courses}, nil
}

func (s *catalogService) GetCategory(ctx context.Context, categoryID string) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, categoryID)
}

func (s *catalogService) CourseBySlug(ctx context.Context, courseSlug string) (*models.CourseDetail, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, course)
}

func (s *catalogService) CourseByID(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, course)
}

func (s *catalogService) detail(ctx context.Context, course *models.Course) (*models.CourseDetail, error) {
	category, err := s.categoryRepo.GetByID(ctx, course.CategoryID)
	if err != nil {
		return nil, err
	}
	modules, err := s.moduleRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	course.TotalModules = len(modules)

	return &models.CourseDetail{Course: *course, Category: category, Modules: modules}, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	categorySlug := req.Slug
	if categorySlug == "" {
		var err error
		categorySlug, err = uniqueSlug(ctx, req.Title, "category", s.categoryRepo.SlugExists)
		if err != nil {
			return nil, err
		}
	}

	category := &models.Category{Title: req.Title, Slug: categorySlug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category_id": category.ID, "slug": category.Slug}).Info("category created")
	return category, nil
}

// uniqueSlug derives a free slug from title, using fallback when the title
// has nothing sluggable in it.
func uniqueSlug(ctx context.Context, title, fallback string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = fallback
	}
	return slug.Unique(ctx, base, exists)
}
