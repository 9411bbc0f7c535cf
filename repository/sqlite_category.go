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

type sqliteCategoryRepo struct {
	db database.TxQuerier
}

func NewSQLiteCategoryRepo(db database.TxQuerier) CategoryRepository {
	return &sqliteCategoryRepo{db: db}
}

func (r *sqliteCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, title, slug)
		VALUES (lower(hex(randomblob(8))), ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, category.Title, category.Slug).
		Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category slug %q already taken", pkg.ErrAlreadyExists, category.Slug)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

func (r *sqliteCategoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return r.getOne(ctx, `WHERE c.id = ?`, id)
}

func (r *sqliteCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, `WHERE c.slug = ?`, slug)
}

func (r *sqliteCategoryRepo) getOne(ctx context.Context, where string, arg any) (*models.Category, error) {
	query := `
		SELECT c.id, c.title, c.slug, c.created_at,
		       (SELECT COUNT(*) FROM courses co WHERE co.category_id = c.id)
		FROM categories c ` + where

	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&category.ID, &category.Title, &category.Slug, &category.CreatedAt, &category.TotalCourses,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

func (r *sqliteCategoryRepo) ListWithCourseCounts(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT c.id, c.title, c.slug, c.created_at, COUNT(co.id)
		FROM categories c
		LEFT JOIN courses co ON co.category_id = c.id
		GROUP BY c.id
		ORDER BY c.title ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.CreatedAt, &c.TotalCourses); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (r *sqliteCategoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return exists, nil
}
