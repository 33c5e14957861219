package web

// errors.go provides unified error response handling for the web layer.
//
// Every error leaves the API as the same JSON body:
//   - the technical error is logged server-side with the request ID
//   - the client receives the core.MapError message, action and code
//   - the HTTP status is derived from the error sentinel
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls s.respondError(w, r, err)
//  3. statusFor picks the status code from the wrapped sentinel
//  4. Technical error + context is logged for correlation
//  5. User message is written as ErrorResponse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/JonMunkholm/txclean/internal/ingest"
	"github.com/JonMunkholm/txclean/internal/logging"
	"github.com/JonMunkholm/txclean/internal/pipeline"
)

// errNoFile is returned when a request carries no input file.
var errNoFile = errors.New("no file provided")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrInvalidCSV),
		errors.Is(err, core.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// nginx convention for a client that went away
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.Enrich(r.Context(), s.logger)
	level := logLevelFor(status)
	logger.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	respondErrorJSON(w, userMsg, status)
}

// logLevelFor logs client errors at warn and server errors at error.
func logLevelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
