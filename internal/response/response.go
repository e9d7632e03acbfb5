// Package response writes the JSON envelope every endpoint answers with.
//
// Success:
//
//	{"status": true, "content": {"data": ..., "meta": ...}}
//
// Failure:
//
//	{"status": false, "errors": [{"param": "email", "message": "...", "code": "INVALID_INPUT"}]}
//
// Domain errors from the service layer are mapped to a status code and a wire
// code here, in one place, so handlers and middleware never pick codes
// themselves.
package response

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sakif/communities/internal/apperror"
)

// Wire error codes.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeResourceExists     = "RESOURCE_EXISTS"
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	CodeNotAllowedAccess   = "NOT_ALLOWED_ACCESS"
	CodeNotSignedIn        = "NOT_SIGNEDIN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

type Content struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

type Success struct {
	Status  bool    `json:"status"`
	Content Content `json:"content"`
}

type ErrorItem struct {
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type Failure struct {
	Status bool        `json:"status"`
	Errors []ErrorItem `json:"errors"`
}

// JSON writes a success envelope. meta may be nil.
func JSON(w http.ResponseWriter, r *http.Request, status int, data, meta any) {
	render.Status(r, status)
	render.JSON(w, r, Success{
		Status:  true,
		Content: Content{Data: data, Meta: meta},
	})
}

// OK writes a bare {"status": true} for operations with nothing to return.
func OK(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, struct {
		Status bool `json:"status"`
	}{Status: true})
}

// Fail writes a failure envelope with the given items.
func Fail(w http.ResponseWriter, r *http.Request, status int, items ...ErrorItem) {
	render.Status(r, status)
	render.JSON(w, r, Failure{Status: false, Errors: items})
}

// Error maps err to an HTTP status and failure envelope.
//
// Errors that do not wrap an apperror sentinel are logged and reported as a
// generic INTERNAL_ERROR; their text never reaches the client.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		internalError(w, r, logger, err)
		return
	}

	var status int
	var code string
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, code = http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, apperror.ErrConflict):
		status, code = http.StatusConflict, CodeResourceExists
	case errors.Is(err, apperror.ErrNotFound):
		status, code = http.StatusNotFound, CodeResourceNotFound
	case errors.Is(err, apperror.ErrForbidden):
		status, code = http.StatusForbidden, CodeNotAllowedAccess
	case errors.Is(err, apperror.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, CodeNotSignedIn
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, CodeInvalidCredentials
	default:
		internalError(w, r, logger, err)
		return
	}

	if len(appErr.Fields) > 0 {
		items := make([]ErrorItem, 0, len(appErr.Fields))
		for _, f := range appErr.Fields {
			items = append(items, ErrorItem{Param: f.Field, Message: f.Message, Code: code})
		}
		Fail(w, r, status, items...)
		return
	}

	Fail(w, r, status, ErrorItem{Param: appErr.Field, Message: appErr.Message, Code: code})
}

// NotSignedIn writes the 401 used by the authentication middleware.
func NotSignedIn(w http.ResponseWriter, r *http.Request) {
	e := apperror.NotSignedIn()
	Fail(w, r, http.StatusUnauthorized, ErrorItem{Message: e.Message, Code: CodeNotSignedIn})
}

func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("unhandled error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	Fail(w, r, http.StatusInternalServerError, ErrorItem{
		Message: "An internal error occurred",
		Code:    CodeInternalError,
	})
}

// Decode parses a JSON request body into v. An empty body leaves v at its
// zero value so validation names each missing field. Malformed bodies become
// an INVALID_INPUT error.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
