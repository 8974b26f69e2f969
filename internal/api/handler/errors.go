package handler

import (
	"net/http"

	"github.com/mcoot/raceboard/internal/api/apierr"
)

// Re-export from apierr for convenience
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidInput     = apierr.CodeInvalidInput
	CodeStoreUnavailable = apierr.CodeStoreUnavailable
	CodeInternalError    = apierr.CodeInternalError
	CodeNotFound         = apierr.CodeNotFound
	CodeMethodNotAllowed = apierr.CodeMethodNotAllowed
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string) error {
	return apierr.NewInvalidInputError(message)
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return apierr.Status(err)
}

// NotFound answers requests that match no route
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, apierr.NewNotFoundError())
}

// MethodNotAllowed answers known paths requested with an unsupported method
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, apierr.NewMethodNotAllowedError())
}
