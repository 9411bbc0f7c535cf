package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

type sqliteEnrollmentRepo struct {
	db database.TxQuerier
}

func NewSQLiteEnrollmentRepo(db database.TxQuerier) EnrollmentRepository {
	return &sqliteEnrollmentRepo{db: db}
}

func (r *sqliteEnrollmentRepo) Enroll(ctx context.Context, courseID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO enrollments (course_id, user_id) VALUES (?, ?)`, courseID, userID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("%w: course", pkg.ErrNotFound)
		}
		return false, fmt.Errorf("failed to enroll: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *sqliteEnrollmentRepo) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	var enrolled bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = ? AND user_id = ?)`, courseID, userID,
	).Scan(&enrolled)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return enrolled, nil
}

func (r *sqliteEnrollmentRepo) ListCourses(ctx context.Context, userID string) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, courseSelect+`
		JOIN enrollments e ON e.course_id = co.id
		WHERE e.user_id = ?
		ORDER BY e.created_at DESC, co.title ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	return scanCourses(rows)
}

func (r *sqliteEnrollmentRepo) ListStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM enrollments WHERE course_id = ? ORDER BY created_at`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
