// Package http serves the accounting core as a JSON API.
//
// This file builds JSON responses and maps domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"buchhaltung/internal/core"
	"buchhaltung/internal/log"
	"buchhaltung/internal/middleware/trace"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

func NewJSONResponse(payload any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		payload:    payload,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

// requestError is a malformed request, answered with 400.
type requestError struct {
	field   string
	message string
}

func (e *requestError) Error() string {
	if e.field == "" {
		return e.message
	}
	return e.field + ": " + e.message
}

func badRequest(field, message string) error {
	return &requestError{field: field, message: message}
}

// classify maps an error to its status and error code.
func classify(err error) (int, ErrorBody) {
	var (
		reqErr         *requestError
		validation     *core.ValidationError
		invalidAccount *core.InvalidAccountError
		sameAccount    *core.SameAccountError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, ErrorBody{Code: "bad_request", Message: reqErr.message, Field: reqErr.field}
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, ErrorBody{Code: log.ErrorTypeValidation, Message: err.Error(), Field: validation.Field}
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorBody{Code: log.ErrorTypeValidation, Message: err.Error()}
	case errors.As(err, &invalidAccount), errors.As(err, &sameAccount):
		return http.StatusUnprocessableEntity, ErrorBody{Code: log.ErrorTypeAccount, Message: err.Error()}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: log.ErrorTypeNotFound, Message: err.Error()}
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, ErrorBody{Code: log.ErrorTypeConflict, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: log.ErrorTypeInternal, Message: "internal server error"}
	}
}

// writeError answers with the status of err. Internal errors are logged with
// their cause and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	body.RequestID = trace.GetRequestID(r.Context())

	logger := log.FromContext(r.Context())
	if status >= 500 {
		logger.LogError(r.Context(), "Request failed", err,
			log.NewFields().WithErrorType(body.Code).WithHTTPRequest(r.Method, r.URL.Path, "", ""))
	} else {
		logger.DebugContext(r.Context(), "Request rejected", "error", err, log.FieldErrorType, body.Code)
	}
	NewJSONResponse(errorEnvelope{Error: body}).Status(status).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	NewJSONResponse(payload).Status(status).Write(w)
}
