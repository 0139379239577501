package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := ConfigFromEnv("info", "json", ComponentLedger)
	cfg.Output = &buf

	l := New(cfg)
	l.Debug("Hidden")
	l.Info("Entry posted", FieldEntryNumber, "BU-000001")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Entry posted", rec["msg"])
	assert.Equal(t, ComponentLedger, rec[FieldComponent])
	assert.Equal(t, "BU-000001", rec[FieldEntryNumber])
	assert.Equal(t, ComponentLedger, l.Component())
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "text", Component: ComponentApp, Output: &buf})

	sub := l.WithComponent(ComponentReports)
	sub.Debug("Report built")

	assert.Equal(t, ComponentReports, sub.Component())
	assert.Contains(t, buf.String(), "component=reports")
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	l.LogError(context.Background(), "Posting failed", errors.New("boom"),
		NewFields().WithErrorType(ErrorTypeAccount).WithPosting("BU-000002", "1200", "8400", "119.00"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "boom", rec[FieldError])
	assert.Equal(t, ErrorTypeAccount, rec[FieldErrorType])
	assert.Equal(t, "8400", rec[FieldCreditAcct])
}

func TestRequestMiddlewareAndHTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogHTTPEnd(r.Context(), r, http.StatusUnprocessableEntity, 3, "10.0.0.1")
	})
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(inner))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries?x=1", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "req-1", rec[FieldRequestID])
	assert.Equal(t, "/api/v1/entries", rec[FieldPath])
	assert.Equal(t, "x=1", rec[FieldQuery])
	assert.Equal(t, float64(422), rec[FieldStatusCode])
	assert.Equal(t, false, rec[FieldSuccess])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}
