package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/repository"
)

// CourseService is the instructor side of courses. Every method is scoped
// to courses the caller owns; other courses look as if they did not exist.
type CourseService interface {
	ListOwned(ctx context.Context, ownerID string) ([]models.Course, error)
	GetOwned(ctx context.Context, ownerID, courseID string) (*models.Course, error)
	Create(ctx context.Context, ownerID string, req *models.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, ownerID, courseID string, req *models.UpdateCourseRequest) (*models.Course, error)
	// Delete removes the course with its modules, contents and items.
	Delete(ctx context.Context, ownerID, courseID string) error
}

type courseService struct {
	courseRepo   repository.CourseRepository
	categoryRepo repository.CategoryRepository
	log          logrus.FieldLogger
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	categoryRepo repository.CategoryRepository,
	logger logrus.FieldLogger,
) CourseService {
	return &courseService{
		courseRepo:   courseRepo,
		categoryRepo: categoryRepo,
		log:          logger.WithField("component", "courses"),
	}
}

// ownedCourse loads a course and hides it from anyone but its owner.
func ownedCourse(ctx context.Context, repo repository.CourseRepository, ownerID, courseID string) (*models.Course, error) {
	course, err := repo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: course", pkg.ErrNotFound)
	}
	return course, nil
}

func (s *courseService) ListOwned(ctx context.Context, ownerID string) ([]models.Course, error) {
	courses, err := s.courseRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func (s *courseService) GetOwned(ctx context.Context, ownerID, courseID string) (*models.Course, error) {
	return ownedCourse(ctx, s.courseRepo, ownerID, courseID)
}

func (s *courseService) Create(ctx context.Context, ownerID string, req *models.CreateCourseRequest) (*models.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	courseSlug := req.Slug
	if courseSlug == "" {
		var err error
		courseSlug, err = uniqueSlug(ctx, req.Title, "course", s.courseRepo.SlugExists)
		if err != nil {
			return nil, err
		}
	}

	course := &models.Course{
		OwnerID:    ownerID,
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Slug:       courseSlug,
		Overview:   req.Overview,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"course_id": course.ID, "owner_id": ownerID}).Info("course created")
	return course, nil
}

func (s *courseService) Update(ctx context.Context, ownerID, courseID string, req *models.UpdateCourseRequest) (*models.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	course, err := ownedCourse(ctx, s.courseRepo, ownerID, courseID)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != course.CategoryID {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		course.CategoryID = *req.CategoryID
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Slug != nil && *req.Slug != "" {
		course.Slug = *req.Slug
	}
	if req.Overview != nil {
		course.Overview = *req.Overview
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, ownerID, courseID string) error {
	if _, err := ownedCourse(ctx, s.courseRepo, ownerID, courseID); err != nil {
		return err
	}
	if err := s.courseRepo.Delete(ctx, courseID); err != nil {
		return err
	}

	s.log.WithField("course_id", courseID).Info("course deleted")
	return nil
}

func (s *courseService) requireCategory(ctx context.Context, categoryID string) error {
	_, err := s.categoryRepo.GetByID(ctx, categoryID)
	if errors.Is(err, pkg.ErrNotFound) {
		return fmt.Errorf("%w: unknown category", pkg.ErrBadRequest)
	}
	return err
}
