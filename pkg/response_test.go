package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: course", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad token", ErrUnauthorized), http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: slug taken", ErrAlreadyExists), http.StatusConflict},
		{ErrBadRequest, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("sqlite: database is locked"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "internal error", body.Error)
}

func TestErrorKeepsDomainMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, fmt.Errorf("%w: module not found", ErrNotFound))

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found: module not found", body.Error)
}
