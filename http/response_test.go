package http_test

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crobledo/plinth"
	plinthhttp "github.com/crobledo/plinth/http"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	err := plinthhttp.WriteJSON(w, nethttp.StatusCreated, map[string]int{"n": 7})
	require.NoError(t, err)

	assert.Equal(t, nethttp.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n": 7}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	plinthhttp.WriteError(w, nethttp.StatusBadRequest, "bad_request", "nope")

	assert.Equal(t, nethttp.StatusBadRequest, w.Code)

	var payload plinthhttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "bad_request", payload.Error)
	assert.Equal(t, "nope", payload.Message)
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "database error maps to 503",
			err:      plinth.DatabaseError("ping", errors.New("down")),
			wantCode: nethttp.StatusServiceUnavailable,
			wantErr:  "database_unavailable",
		},
		{
			name:     "configuration error maps to 500",
			err:      plinth.ConfigError("load", errors.New("bad yaml")),
			wantCode: nethttp.StatusInternalServerError,
			wantErr:  "configuration_error",
		},
		{
			name:     "unclassified error maps to 500",
			err:      errors.New("boom"),
			wantCode: nethttp.StatusInternalServerError,
			wantErr:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			plinthhttp.HandleError(w, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)

			var payload plinthhttp.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, tt.wantErr, payload.Error)
		})
	}
}
