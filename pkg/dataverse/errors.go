package dataverse

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by *APIError through errors.Is.
var (
	// ErrNotFound is a 404: no such dataverse, dataset or file.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a 401: missing or invalid API token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is a 403, e.g. deleting a dataverse that is not empty.
	ErrForbidden = errors.New("forbidden")
	// ErrNotAllowed is a 405, e.g. deleting a published dataset.
	ErrNotAllowed = errors.New("not allowed")
)

// ErrMissingField indicates a required metadata field is empty.
var ErrMissingField = errors.New("missing required field")

// APIError is a non-2xx response from the server.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// Is maps the status code onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusMethodNotAllowed:
		return target == ErrNotAllowed
	}
	return false
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
