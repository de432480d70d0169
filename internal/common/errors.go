package common

import (
	"errors"
	"net/http"
)

// Error taxonomy codes shared across the API surface.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeValidation    = "VALIDATION"
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
	CodeInconsistent  = "INCONSISTENT"
	CodeInternal      = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Render writes an error to the response in the canonical shape. AppErrors
// keep their code and status; anything else becomes an opaque 500.
func Render(w http.ResponseWriter, err error) {
	var app *AppError
	if errors.As(err, &app) {
		status := app.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, app.Code, app.Message, app.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
