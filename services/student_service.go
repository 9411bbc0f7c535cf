package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/pkg/email"
	"github.com/akinalp/lectern/repository"
)

// StudentService covers enrollment and studying a course. Course content
// is visible to enrolled students and to the course owner.
type StudentService interface {
	// Enroll is idempotent.
	Enroll(ctx context.Context, userID, courseID string) error
	ListCourses(ctx context.Context, userID string) ([]models.Course, error)
	// CourseView returns the course outline with one module opened. An
	// empty moduleID opens the first module.
	CourseView(ctx context.Context, userID, courseID, moduleID string) (*models.StudentCourseView, error)
	// CourseContents returns every module with its rendered contents.
	CourseContents(ctx context.Context, userID, courseID string) (*models.CourseContents, error)
	CanAccessCourse(ctx context.Context, userID, courseID string) (bool, error)
}

type studentService struct {
	enrollRepo  repository.EnrollmentRepository
	courseRepo  repository.CourseRepository
	moduleRepo  repository.ModuleRepository
	contentRepo repository.ContentRepository
	userRepo    repository.UserRepository
	renderer    *ContentRenderer
	mailer      email.Sender
	log         logrus.FieldLogger
}

func NewStudentService(
	enrollRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	moduleRepo repository.ModuleRepository,
	contentRepo repository.ContentRepository,
	userRepo repository.UserRepository,
	renderer *ContentRenderer,
	mailer email.Sender,
	logger logrus.FieldLogger,
) StudentService {
	return &studentService{
		enrollRepo:  enrollRepo,
		courseRepo:  courseRepo,
		moduleRepo:  moduleRepo,
		contentRepo: contentRepo,
		userRepo:    userRepo,
		renderer:    renderer,
		mailer:      mailer,
		log:         logger.WithField("component", "students"),
	}
}

func (s *studentService) Enroll(ctx context.Context, userID, courseID string) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return err
	}

	created, err := s.enrollRepo.Enroll(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "course_id": courseID}).Info("student enrolled")
	s.sendEnrollmentMail(ctx, userID, course)
	return nil
}

// sendEnrollmentMail is best effort; a mail failure never undoes the
// enrollment.
func (s *studentService) sendEnrollmentMail(ctx context.Context, userID string, course *models.Course) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.Email == nil {
		return
	}

	path := fmt.Sprintf("/students/courses/%s", course.ID)
	if err := s.mailer.SendEnrollmentConfirmation(ctx, *user.Email, course.Title, path); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("enrollment email not sent")
	}
}

func (s *studentService) ListCourses(ctx context.Context, userID string) ([]models.Course, error) {
	courses, err := s.enrollRepo.ListCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func (s *studentService) CanAccessCourse(ctx context.Context, userID, courseID string) (bool, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if course.OwnerID == userID {
		return true, nil
	}
	return s.enrollRepo.IsEnrolled(ctx, courseID, userID)
}

// accessibleCourse loads a course the user may study.
func (s *studentService) accessibleCourse(ctx context.Context, userID, courseID string) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID == userID {
		return course, nil
	}

	enrolled, err := s.enrollRepo.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("%w: not enrolled in this course", pkg.ErrForbidden)
	}
	return course, nil
}

func (s *studentService) CourseView(ctx context.Context, userID, courseID, moduleID string) (*models.StudentCourseView, error) {
	course, err := s.accessibleCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	modules, err := s.moduleRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	course.TotalModules = len(modules)
	view := &models.StudentCourseView{Course: *course, Modules: modules}

	var current *models.Module
	switch {
	case moduleID != "":
		for i := range modules {
			if modules[i].ID == moduleID {
				current = &modules[i]
				break
			}
		}
		if current == nil {
			return nil, fmt.Errorf("%w: module", pkg.ErrNotFound)
		}
	case len(modules) > 0:
		current = &modules[0]
	default:
		return view, nil
	}

	contents, err := s.contentRepo.ListByModule(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if err := s.renderer.RenderContents(contents); err != nil {
		return nil, err
	}

	view.Current = &models.ModuleWithContents{Module: *current, Contents: contents}
	return view, nil
}

func (s *studentService) CourseContents(ctx context.Context, userID, courseID string) (*models.CourseContents, error) {
	course, err := s.accessibleCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	modules, err := s.moduleRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	contents, err := s.contentRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.renderer.RenderContents(contents); err != nil {
		return nil, err
	}

	byModule := make(map[string][]models.Content, len(modules))
	for _, c := range contents {
		byModule[c.ModuleID] = append(byModule[c.ModuleID], c)
	}

	out := &models.CourseContents{Course: *course, Modules: make([]models.ModuleWithContents, 0, len(modules))}
	for _, m := range modules {
		mc := byModule[m.ID]
		if mc == nil {
			mc = []models.Content{}
		}
		out.Modules = append(out.Modules, models.ModuleWithContents{Module: m, Contents: mc})
	}
	out.TotalModules = len(modules)
	return out, nil
}
