package pkapi

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is returned when the transport fails or the API answers
// with a status outside [200,300).
type RequestError struct {
	Op         string
	StatusCode int    // 0 when the transport itself failed
	Status     string // transport status text, e.g. "404 Not Found"
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: request failed: %s", e.Op, e.Status)
}

func (e *RequestError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when a successful response body is not valid JSON.
type MalformedResponseError struct {
	Op   string
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Op, truncate(e.Body, 200))
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SchemaError is returned when valid JSON does not have the shape of a
// System or Member record.
type SchemaError struct {
	Op    string
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: schema mismatch at %s: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: schema mismatch: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized reports whether the API rejected the supplied token.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == http.StatusUnauthorized || reqErr.StatusCode == http.StatusForbidden
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
