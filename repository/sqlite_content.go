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

type sqliteContentRepo struct {
	db *sql.DB
}

// NewSQLiteContentRepo needs the *sql.DB itself: creating a content writes
// two rows inside its own transaction.
func NewSQLiteContentRepo(db *sql.DB) ContentRepository {
	return &sqliteContentRepo{db: db}
}

const contentSelect = `
	SELECT ct.id, ct.module_id, ct.item_id, ct.position, ct.created_at,
	       i.id, i.owner_id, i.kind, i.title, i.body, i.file_url, i.file_name, i.video_url,
	       i.created_at, i.updated_at
	FROM contents ct
	JOIN items i ON i.id = ct.item_id`

func scanContent(row interface{ Scan(...any) error }) (models.Content, error) {
	var c models.Content
	item := &models.Item{}
	err := row.Scan(
		&c.ID, &c.ModuleID, &c.ItemID, &c.Position, &c.CreatedAt,
		&item.ID, &item.OwnerID, &item.Kind, &item.Title, &item.Body, &item.FileURL, &item.FileName, &item.VideoURL,
		&item.CreatedAt, &item.UpdatedAt,
	)
	c.Item = item
	return c, err
}

func (r *sqliteContentRepo) Create(ctx context.Context, content *models.Content) error {
	if content.Item == nil {
		return fmt.Errorf("%w: content has no item", pkg.ErrBadRequest)
	}
	item := content.Item

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO items (id, owner_id, kind, title, body, file_url, file_name, video_url)
			VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?, ?)
			RETURNING id, created_at, updated_at`,
			item.OwnerID, item.Kind, item.Title, item.Body, item.FileURL, item.FileName, item.VideoURL,
		).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}

		content.ItemID = item.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO contents (id, module_id, item_id, position)
			VALUES (lower(hex(randomblob(8))), ?, ?, ?)
			RETURNING id, created_at`,
			content.ModuleID, content.ItemID, content.Position,
		).Scan(&content.ID, &content.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: module", pkg.ErrNotFound)
			}
			return fmt.Errorf("failed to create content: %w", err)
		}

		return nil
	})
}

func (r *sqliteContentRepo) GetByID(ctx context.Context, id string) (*models.Content, error) {
	c, err := scanContent(r.db.QueryRowContext(ctx, contentSelect+` WHERE ct.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: content", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &c, nil
}

func (r *sqliteContentRepo) ListByModule(ctx context.Context, moduleID string) ([]models.Content, error) {
	return r.list(ctx,
		contentSelect+` WHERE ct.module_id = ? ORDER BY ct.position ASC, ct.created_at ASC, ct.rowid ASC`,
		moduleID)
}

func (r *sqliteContentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Content, error) {
	return r.list(ctx, contentSelect+`
		JOIN modules m ON m.id = ct.module_id
		WHERE m.course_id = ?
		ORDER BY m.position ASC, m.created_at ASC, ct.position ASC, ct.created_at ASC, ct.rowid ASC`,
		courseID)
}

func (r *sqliteContentRepo) list(ctx context.Context, query string, arg any) ([]models.Content, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer rows.Close()

	contents := []models.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, c)
	}

	return contents, rows.Err()
}

func (r *sqliteContentRepo) UpdateItem(ctx context.Context, item *models.Item) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE items
		SET title = ?, body = ?, file_url = ?, file_name = ?, video_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING updated_at`,
		item.Title, item.Body, item.FileURL, item.FileName, item.VideoURL, item.ID,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: item", pkg.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (r *sqliteContentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return expectAffected(result, "content")
}

func (r *sqliteContentRepo) MaxPosition(ctx context.Context, scope models.ContentScope) (int, error) {
	var maxPos int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) FROM contents WHERE module_id = ?`, scope.ModuleID,
	).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("failed to get max content position: %w", err)
	}
	return maxPos, nil
}

func (r *sqliteContentRepo) UpdatePositionOwned(ctx context.Context, ownerID, id string, position int) (bool, error) {
	query := `
		UPDATE contents SET position = ?
		WHERE id = ?
		  AND module_id IN (
		      SELECT m.id FROM modules m
		      JOIN courses c ON c.id = m.course_id
		      WHERE c.owner_id = ?)`

	result, err := r.db.ExecContext(ctx, query, position, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to update content position: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}
