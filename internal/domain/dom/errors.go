package dom

import "errors"

// Sentinel errors for document operations.
var (
	ErrNotControl  = errors.New("element is not a form control")
	ErrUnknownNode = errors.New("element does not belong to this document")
	ErrIndexRange  = errors.New("option index out of range")
	ErrDetached    = errors.New("document detached")
)
