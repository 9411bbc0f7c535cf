package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

type sqliteUserRepo struct {
	db database.TxQuerier
}

func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

const userColumns = `id, username, email, display_name, telephone, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.DisplayName,
		&user.Telephone, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	return user, err
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, display_name, telephone, password_hash, role)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		user.Username, user.Email, user.DisplayName, user.Telephone, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	switch {
	case err == nil:
		return nil
	case !isUniqueViolation(err):
		return fmt.Errorf("failed to create user: %w", err)
	case strings.Contains(err.Error(), "users.email"):
		return fmt.Errorf("%w: email already in use", pkg.ErrAlreadyExists)
	default:
		return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
	}
}

// Lookup predicates. Emails compare case-insensitively.
const (
	byID       = `id = ?`
	byUsername = `username = ?`
	byEmail    = `email = ? COLLATE NOCASE`
)

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, byID, id)
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, byUsername, username)
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, byEmail, email)
}

func (r *sqliteUserRepo) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, telephone = ? WHERE id = ?`,
		user.DisplayName, user.Telephone, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return expectAffected(result, "user")
}

func (r *sqliteUserRepo) UpdatePassword(ctx context.Context, userID string, newPasswordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, newPasswordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectAffected(result, "user")
}

// expectAffected turns "no row matched" into pkg.ErrNotFound.
func expectAffected(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", pkg.ErrNotFound, what)
	}
	return nil
}
