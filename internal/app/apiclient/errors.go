package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MutedIndicator is the fragment the server puts in the error message of a muted sender.
const MutedIndicator = "禁言"

// APIError is returned when the server answered with a failure status or an unusable body.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int

	// Message is the server-provided error text, or a generic status message.
	Message string

	// Body is the parsed response body, kept for callers that need more than the message.
	Body any
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 when the server was never reached.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNetwork reports whether err means the server could not be reached.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsMuted reports whether err is the server rejecting a post from a muted user.
func IsMuted(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusForbidden && strings.Contains(apiErr.Message, MutedIndicator)
}

// statusMessage is the message used when the body carries no error text.
func statusMessage(status int) string {
	return fmt.Sprintf("HTTP error, status=%d", status)
}
