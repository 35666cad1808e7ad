package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidKey = errors.New("invalid answer key")
	ErrClosed     = errors.New("store closed")
)
