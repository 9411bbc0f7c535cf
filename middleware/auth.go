// Package middleware holds the http.Handler wrappers applied in routing:
// authentication, role checks and request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/lectern/handlers"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/repository"
)

// TokenValidator checks an access token and returns its claims.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type AuthMiddleware struct {
	tokens   TokenValidator
	userRepo repository.UserRepository
}

func NewAuthMiddleware(tokens TokenValidator, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, userRepo: userRepo}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// returned message is empty on success.
func bearerToken(r *http.Request) (token, problem string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "authorization header required"
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", "invalid authorization format, use: Bearer <token>"
	}
	return strings.TrimSpace(token), ""
}

// Require rejects requests without a valid bearer token and puts the
// current user in the request context. The user is reloaded on every
// request, so a deleted account or a changed role applies immediately.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, problem := bearerToken(r)
		if problem != "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, problem)
			return
		}

		claims, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), handlers.UserContextKey, user)))
	})
}
