package models

import (
	"strings"
	"time"

	"github.com/akinalp/lectern/pkg/validate"
)

// Role decides which parts of the API a user may reach.
type Role string

const (
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"`
	DisplayName  *string   `json:"display_name"`
	Telephone    *string   `json:"telephone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsInstructor reports whether u may author courses.
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

// CreateUserRequest is the public registration payload. Self-registration
// always creates students; instructors are created from the CLI.
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32,username"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Telephone   string `json:"telephone" validate:"omitempty,max=20"`
}

func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Telephone = strings.TrimSpace(r.Telephone)
	return validate.Struct(r)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	return validate.Struct(r)
}

// UpdateProfileRequest is a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=64"`
	Telephone   *string `json:"telephone" validate:"omitempty,max=20"`
}

func (r *UpdateProfileRequest) Validate() error {
	return validate.Struct(r)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128,nefield=CurrentPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	return validate.Struct(r)
}
