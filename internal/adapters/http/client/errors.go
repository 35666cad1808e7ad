package client

import (
	"errors"
	"fmt"
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// StatusError carries the status and server message of a failed call.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s: %d: %s", e.Path, e.Code, e.Message)
}

// Unwrap lets errors.Is match ErrStatus.
func (e *StatusError) Unwrap() error { return ErrStatus }
