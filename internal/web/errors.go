package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. statusFor picks the HTTP status from the typed pipeline error
//  4. Error is mapped via core.MapError to get a user-friendly message
//  5. Technical error is logged with the request ID for correlation
//  6. User message is rendered as JSON or as an HTML page

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/agedist/internal/core"
	"github.com/JonMunkholm/agedist/internal/logging"
	"github.com/JonMunkholm/agedist/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps pipeline errors to HTTP status codes:
//
//	*core.FileReadError  404
//	*core.ParseError     422
//	anything else        500
func statusFor(err error) int {
	var fileErr *core.FileReadError
	if errors.As(err, &fileErr) {
		return http.StatusNotFound
	}
	var parseErr *core.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error server-side and returns a
// user-friendly response in the format the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	level := slog.LevelError
	if core.IsUserFacing(err) && statusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		writeJSON(w, r, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}
	respondErrorHTML(w, r, err, userMsg, statusCode)
}

// respondErrorHTML renders the error page. A missing file gets the
// "File Not Found" page with the technical message, as the operator is the
// one who has to fix the path.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, err error, msg core.UserMessage, statusCode int) {
	title, message := "Error", msg.Message
	if statusCode == http.StatusNotFound {
		title, message = "File Not Found", err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if rerr := templates.ErrorPage(title, message, msg.Action, msg.Code).Render(r.Context(), w); rerr != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", rerr)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
