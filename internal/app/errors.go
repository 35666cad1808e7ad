package service

import "errors"

var (
	// ErrNoDocument is returned when the service has no document to work on.
	ErrNoDocument = errors.New("no document configured")
	// ErrNoStore is returned when the service has no answer store.
	ErrNoStore = errors.New("no answer store configured")
	// ErrNotStarted is returned by passes run before Start.
	ErrNotStarted = errors.New("service not started")
)
