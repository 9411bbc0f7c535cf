// Package handlers turns HTTP requests into service calls and service
// results into the JSON envelope.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

type contextKey string

// UserContextKey is where the auth middleware stores the current
// *models.User.
const UserContextKey contextKey = "user"

// currentUser reads the authenticated user, answering 401 itself when the
// route was mounted without the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

// decodeJSON reads the body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
