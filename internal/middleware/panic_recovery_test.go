package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecovery(t *testing.T) {
	tests := []struct {
		name    string
		traceID string
		panicV  interface{}
	}{
		{name: "string panic", traceID: "trace-9", panicV: "division by zero"},
		{name: "error panic", traceID: "trace-10", panicV: assert.AnError},
		{name: "no trace id", panicV: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &bytes.Buffer{}
			mw := PanicRecovery(slog.New(slog.NewTextHandler(logs, nil)))

			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil), rec)
			if tt.traceID != "" {
				c.Set(TraceIDContextKey, tt.traceID)
			}

			err := mw(func(echo.Context) error { panic(tt.panicV) })(c)
			require.NoError(t, err)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			var body envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "SYSTEM_001", body.Error.Code)

			wantTrace := tt.traceID
			if wantTrace == "" {
				wantTrace = "unknown"
			}
			assert.Equal(t, wantTrace, body.Error.TraceID)
			assert.Contains(t, logs.String(), "panic recovered")
			assert.Contains(t, logs.String(), "stack=")
		})
	}
}

func TestPanicRecovery_PassesThrough(t *testing.T) {
	mw := PanicRecovery(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := mw(func(c echo.Context) error { return echo.ErrNotFound })(c)
	assert.ErrorIs(t, err, echo.ErrNotFound)
	assert.Equal(t, http.StatusOK, rec.Code, "nothing written yet")
}
