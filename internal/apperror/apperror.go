// Package apperror defines the domain errors shared by the service,
// repository and HTTP layers.
//
// Every error a client can act on wraps one of the sentinel values below, so
// callers classify with errors.Is and never by comparing messages. The HTTP
// layer (internal/response) owns the mapping from sentinel to status code and
// wire code.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

type AppError struct {
	Err     error        // sentinel, one of the Err* values above
	Message string       // human-readable error message
	Field   string       // optional: field causing the error
	Fields  []FieldError // optional: every failing field of a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundField is NotFound attributed to the request field that referenced
// the missing resource.
func NotFoundField(field, message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// InvalidInput collects several field failures into one error. The first
// failure doubles as the error message.
func InvalidInput(fields []FieldError) *AppError {
	e := &AppError{Err: ErrValidation, Fields: fields, Message: "invalid input"}
	if len(fields) > 0 {
		e.Message = fields[0].Message
		e.Field = fields[0].Field
	}
	return e
}

// Exists reports a uniqueness conflict on a named field.
func Exists(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// NotSignedIn is returned when a request carries no usable identity.
func NotSignedIn() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "You need to sign in to proceed.",
	}
}

// InvalidCredentials is the single signin failure. Unknown email and wrong
// password both produce it so responses cannot reveal which emails are registered.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "The credentials you provided are invalid.",
		Field:   "password",
	}
}
