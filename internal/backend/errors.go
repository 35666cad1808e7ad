package backend

import "errors"

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyResume   = errors.New("resume text is empty")
	ErrNoProfile     = errors.New("no profile stored")
)
