package assistant

import (
	"errors"
	"fmt"
)

// ErrEmptyResult means the backend answered 2xx but the expected payload
// field was missing or blank.
var ErrEmptyResult = errors.New("assistant response missing payload")

// ErrTimeout means image generation produced no response inside the
// client-side wait budget and the request was aborted.
var ErrTimeout = errors.New("image generation timed out")

// NetworkError wraps a transport or response-parse failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("assistant request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError is a non-2xx response with the server-supplied detail.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("assistant backend returned %d", e.Status)
	}
	return e.Detail
}
