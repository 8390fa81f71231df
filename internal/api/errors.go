package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStatus marks responses whose status code is outside the 2xx range.
	ErrStatus = errors.New("api: unexpected status")
	// ErrDecode marks a success response whose body could not be decoded.
	ErrDecode = errors.New("api: decode response")
)

// NetworkError is returned when the transport fails or the server answers
// with a non-success status.
type NetworkError struct {
	Method string
	URL    string
	// Status is zero when no response was received.
	Status int
	Body   string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Status != 0 {
		msg := fmt.Sprintf("api: %s %s: status %d", e.Method, e.URL, e.Status)
		if e.Body != "" {
			msg += ": " + e.Body
		}
		return msg
	}
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries a 404 from the API.
func IsNotFound(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Status == http.StatusNotFound
}

// StatusCode extracts the HTTP status from err, or zero.
func StatusCode(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Status
	}
	return 0
}
