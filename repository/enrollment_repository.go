package repository

import (
	"context"

	"github.com/akinalp/lectern/models"
)

type EnrollmentRepository interface {
	// Enroll is a no-op when the user is already enrolled. It reports
	// whether a new enrollment was created.
	Enroll(ctx context.Context, courseID, userID string) (bool, error)
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
	ListCourses(ctx context.Context, userID string) ([]models.Course, error)
	ListStudentIDs(ctx context.Context, courseID string) ([]string, error)
}
