package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse(map[string]string{"entryNumber": "BU-000001"}).
		Status(http.StatusCreated).
		Header("Location", "/api/ledger/entries/1").
		Write(rr)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "/api/ledger/entries/1", rr.Header().Get("Location"))
	assert.JSONEq(t, `{"entryNumber":"BU-000001"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewJSONResponse(nil).Status(http.StatusNoContent).Write(rr)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"bad request", badRequest("limit", "invalid number"), http.StatusBadRequest, "bad_request", "limit"},
		{"validation", &core.ValidationError{Field: "description", Message: "description is required"}, http.StatusUnprocessableEntity, "validation_error", "description"},
		{"wrapped validation", fmt.Errorf("create: %w", &core.ValidationError{Field: "year", Message: "out of range"}), http.StatusUnprocessableEntity, "validation_error", "year"},
		{"invalid amount", &core.InvalidAmountError{Amount: decimal.Zero}, http.StatusUnprocessableEntity, "validation_error", ""},
		{"invalid type", &core.InvalidTypeError{Kind: "provision type", Value: "BONUS"}, http.StatusUnprocessableEntity, "validation_error", ""},
		{"invalid account", &core.InvalidAccountError{Number: "9999", Reason: "unknown account"}, http.StatusUnprocessableEntity, "account_error", ""},
		{"same account", &core.SameAccountError{Number: "1200"}, http.StatusUnprocessableEntity, "account_error", ""},
		{"not found", &core.NotFoundError{Entity: "asset", Key: "7"}, http.StatusNotFound, "not_found_error", ""},
		{"conflict", &core.ConflictError{Entity: "ledger entry", Key: "BU-000001", Reason: "already reversed"}, http.StatusConflict, "conflict_error", ""},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest(http.MethodGet, "/api/accounts", nil), errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "internal server error", env.Error.Message)
	assert.NotContains(t, rr.Body.String(), "password")
}
