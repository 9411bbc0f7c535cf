package middleware

import (
	"net/http"

	"github.com/akinalp/lectern/handlers"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

// InstructorMiddleware admits only instructors. It must run after
// AuthMiddleware.Require.
type InstructorMiddleware struct{}

func NewInstructorMiddleware() *InstructorMiddleware {
	return &InstructorMiddleware{}
}

func (m *InstructorMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		if !user.IsInstructor() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "instructor access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
