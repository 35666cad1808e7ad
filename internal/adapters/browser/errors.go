package browser

import "errors"

var (
	ErrNoBrowser = errors.New("no browser available")
	ErrSnapshot  = errors.New("page snapshot failed")
)
