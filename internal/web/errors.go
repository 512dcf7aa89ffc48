package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request ID, then
// returned to the client as the user message from core.MapError:
//   - /api/ routes and JSON clients get an ErrorResponse body
//   - pages get a plain text message with the support code

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/core"
	"github.com/JonMunkholm/certbatch/internal/logging"
	"github.com/JonMunkholm/certbatch/internal/tabular"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// ErrorPreview lists row problems when an upload yields no candidates.
	ErrorPreview []string `json:"errorPreview,omitempty"`

	// Fields holds per-field problems of a manual entry.
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var de *tabular.DecodeError
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrInvalidEntry),
		errors.Is(err, core.ErrNotEnrolled),
		errors.Is(err, tabular.ErrUnsupportedFormat),
		errors.As(err, &de):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoCandidates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrBatchRunning), errors.Is(err, core.ErrBatchEmpty):
		return http.StatusConflict
	case errors.Is(err, batch.ErrCandidateNotFound), errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errInvalidPassword):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message. A statusCode of
// zero derives the status from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	s.respondErrorWith(w, r, err, statusCode, ErrorResponse{})
}

// respondErrorWith is respondError with extra response fields.
func (s *Server) respondErrorWith(w http.ResponseWriter, r *http.Request, err error, statusCode int, extra ErrorResponse) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if !wantsJSON(r) {
		respondErrorHTML(w, userMsg, statusCode)
		return
	}

	extra.Error = userMsg.Message
	extra.Message = userMsg.Message
	extra.Action = userMsg.Action
	extra.Code = userMsg.Code
	writeJSONStatus(w, statusCode, extra)
}

// respondErrorHTML writes a plain text error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are logged since
// headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(context.Background()).Error("json encode error", "error", err)
	}
}
