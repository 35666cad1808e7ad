package fill

import "errors"

var (
	// ErrUnsupportedKind is returned for a control kind the applicator cannot write.
	ErrUnsupportedKind = errors.New("unsupported control kind")
	// ErrNoElements is returned for a control that lost its elements.
	ErrNoElements = errors.New("control has no elements")
)
