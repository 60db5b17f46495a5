package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated is returned when no session exists. It is raised locally,
// before any request is sent, and is treated like an HTTP 401.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrInvalidBook is wrapped by client-side validation failures.
var ErrInvalidBook = errors.New("invalid book")

// ErrorBody is the decoded error payload of a failed response.
// HasDetail is false when the server sent no parseable reason.
type ErrorBody struct {
	Detail    string
	HasDetail bool
}

// HTTPError is returned when the server rejects a request.
type HTTPError struct {
	Status  int
	Body    ErrorBody
	Message string
}

// NewHTTPError builds an HTTPError, falling back to a generic message when
// the body carried no detail.
func NewHTTPError(status int, body ErrorBody) *HTTPError {
	msg := body.Detail
	if !body.HasDetail {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	return &HTTPError{Status: status, Body: body, Message: msg}
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NetworkError is returned when the server could not be reached.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a successful response body is malformed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// IsSessionInvalid reports whether err means the user must log in again.
func IsSessionInvalid(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsNetwork reports whether err is a connectivity failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
