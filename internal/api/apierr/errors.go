package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/raceboard/internal/model"
)

// ErrorResponse is the body of every API error. Error is always a string.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Common error codes
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// httpError combines an HTTP status code with an ErrorResponse
type httpError struct {
	status int
	body   ErrorResponse
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.body.Error
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.body)
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return &httpError{http.StatusBadRequest, ErrorResponse{ve.Error(), CodeInvalidInput}}
	case errors.Is(err, model.ErrInvalidInput):
		return &httpError{http.StatusBadRequest, ErrorResponse{"Invalid input", CodeInvalidInput}}
	case errors.Is(err, model.ErrStoreUnavailable):
		// Backend details stay in the logs
		return &httpError{http.StatusInternalServerError, ErrorResponse{"Server error", CodeStoreUnavailable}}
	default:
		return &httpError{http.StatusInternalServerError, ErrorResponse{"Internal server error", CodeInternalError}}
	}
}

// NewInvalidInputError creates an invalid input error with a custom message
func NewInvalidInputError(message string) error {
	return &httpError{http.StatusBadRequest, ErrorResponse{message, CodeInvalidInput}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, ErrorResponse{"Internal server error", CodeInternalError}}
}

// NewNotFoundError reports a path with no route
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, ErrorResponse{"Not found", CodeNotFound}}
}

// NewMethodNotAllowedError reports a known path requested with the wrong method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, ErrorResponse{"Method not allowed", CodeMethodNotAllowed}}
}
