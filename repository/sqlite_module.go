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

type sqliteModuleRepo struct {
	db database.TxQuerier
}

func NewSQLiteModuleRepo(db database.TxQuerier) ModuleRepository {
	return &sqliteModuleRepo{db: db}
}

func (r *sqliteModuleRepo) Create(ctx context.Context, module *models.Module) error {
	query := `
		INSERT INTO modules (id, course_id, title, description, position)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		module.CourseID, module.Title, module.Description, module.Position,
	).Scan(&module.ID, &module.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: course", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create module: %w", err)
	}

	return nil
}

func (r *sqliteModuleRepo) GetByID(ctx context.Context, id string) (*models.Module, error) {
	query := `
		SELECT id, course_id, title, description, position, created_at
		FROM modules WHERE id = ?`

	m := &models.Module{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: module", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return m, nil
}

func (r *sqliteModuleRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Module, error) {
	query := `
		SELECT id, course_id, title, description, position, created_at
		FROM modules WHERE course_id = ?
		ORDER BY position ASC, created_at ASC, rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	modules := []models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module row: %w", err)
		}
		modules = append(modules, m)
	}

	return modules, rows.Err()
}

func (r *sqliteModuleRepo) Update(ctx context.Context, module *models.Module) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE modules SET title = ?, description = ? WHERE id = ?`,
		module.Title, module.Description, module.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	return expectAffected(result, "module")
}

func (r *sqliteModuleRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return expectAffected(result, "module")
}

func (r *sqliteModuleRepo) MaxPosition(ctx context.Context, scope models.ModuleScope) (int, error) {
	var maxPos int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) FROM modules WHERE course_id = ?`, scope.CourseID,
	).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("failed to get max module position: %w", err)
	}
	return maxPos, nil
}

func (r *sqliteModuleRepo) UpdatePositionOwned(ctx context.Context, ownerID, id string, position int) (bool, error) {
	query := `
		UPDATE modules SET position = ?
		WHERE id = ?
		  AND course_id IN (SELECT id FROM courses WHERE owner_id = ?)`

	result, err := r.db.ExecContext(ctx, query, position, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to update module position: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}
