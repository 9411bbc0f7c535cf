package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/handlers"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

func TestLoggingRecoversPanic(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := Logging(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body pkg.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, pkg.ErrInternal.Error(), body.Error)

	var sawPanic bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["panic"] == "boom" {
			sawPanic = true
		}
	}
	assert.True(t, sawPanic)
}

func TestLoggingRequestID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "req-42", last.Data["request-id"])
	assert.Equal(t, http.StatusTeapot, last.Data["status"])
	assert.Equal(t, logrus.WarnLevel, last.Level)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader), "generated when absent")
}

func TestStatusWriterKeepsHijack(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	var w http.ResponseWriter = sw
	_, ok := w.(http.Hijacker)
	require.True(t, ok)

	_, _, err := sw.Hijack()
	assert.Error(t, err, "recorder cannot be hijacked")

	logger, _ := test.NewNullLogger()
	srv := httptest.NewServer(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = conn.Write([]byte("HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n"))
		conn.Close()
	})))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestInstructorGate(t *testing.T) {
	gate := NewInstructorMiddleware().Require(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(user *models.User) int {
		req := httptest.NewRequest(http.MethodGet, "/api/manage/courses", nil)
		if user != nil {
			req = req.WithContext(context.WithValue(req.Context(), handlers.UserContextKey, user))
		}
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&models.User{ID: "s", Role: models.RoleStudent}))
	assert.Equal(t, http.StatusNoContent, serve(&models.User{ID: "i", Role: models.RoleInstructor}))
}
