package models

import (
	"strings"
	"time"

	"github.com/akinalp/lectern/pkg/validate"
)

// PasswordResetToken stores only the SHA-256 of the emailed token.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validate.Struct(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,hexadecimal,len=64"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

func (r *ResetPasswordRequest) Validate() error {
	return validate.Struct(r)
}
