package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a successful response.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data})
}

// Error writes an error response, deriving the status from the domain error
// in err's chain. Unclassified errors are reported as a bare "internal error"
// so driver messages never reach clients.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		ErrorWithMessage(w, status, ErrInternal.Error())
		return
	}
	ErrorWithMessage(w, status, err.Error())
}

// ErrorWithMessage writes an error response with an explicit status.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, APIResponse{Error: message})
}

func writeEnvelope(w http.ResponseWriter, status int, body APIResponse) {
	payload, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}

var statusByError = []struct {
	target error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrBadRequest, http.StatusBadRequest},
}

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
