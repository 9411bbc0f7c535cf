package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

type sqliteCourseRepo struct {
	db database.TxQuerier
}

func NewSQLiteCourseRepo(db database.TxQuerier) CourseRepository {
	return &sqliteCourseRepo{db: db}
}

const courseSelect = `
	SELECT co.id, co.owner_id, co.category_id, co.title, co.slug, co.overview, co.created_at,
	       (SELECT COUNT(*) FROM modules m WHERE m.course_id = co.id)
	FROM courses co`

func scanCourse(row interface{ Scan(...any) error }) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.OwnerID, &c.CategoryID, &c.Title, &c.Slug, &c.Overview, &c.CreatedAt, &c.TotalModules)
	return c, err
}

func scanCourses(rows *sql.Rows) ([]models.Course, error) {
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *sqliteCourseRepo) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (id, owner_id, category_id, title, slug, overview)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		course.OwnerID, course.CategoryID, course.Title, course.Slug, course.Overview,
	).Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: course slug %q already taken", pkg.ErrAlreadyExists, course.Slug)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown category", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

func (r *sqliteCourseRepo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	return r.getOne(ctx, courseSelect+` WHERE co.id = ?`, id)
}

func (r *sqliteCourseRepo) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return r.getOne(ctx, courseSelect+` WHERE co.slug = ?`, slug)
}

func (r *sqliteCourseRepo) getOne(ctx context.Context, query string, arg any) (*models.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: course", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

func (r *sqliteCourseRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		courseSelect+` WHERE co.owner_id = ? ORDER BY co.created_at DESC, co.rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner courses: %w", err)
	}
	return scanCourses(rows)
}

func (r *sqliteCourseRepo) ListWithModuleCounts(ctx context.Context, categoryID string) ([]models.Course, error) {
	query := courseSelect + ` WHERE (? = '' OR co.category_id = ?) ORDER BY co.created_at DESC, co.rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, categoryID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return scanCourses(rows)
}

func (r *sqliteCourseRepo) Update(ctx context.Context, course *models.Course) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE courses SET category_id = ?, title = ?, slug = ?, overview = ? WHERE id = ?`,
		course.CategoryID, course.Title, course.Slug, course.Overview, course.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: course slug %q already taken", pkg.ErrAlreadyExists, course.Slug)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown category", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to update course: %w", err)
	}
	return expectAffected(result, "course")
}

func (r *sqliteCourseRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return expectAffected(result, "course")
}

func (r *sqliteCourseRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check course slug: %w", err)
	}
	return exists, nil
}
