package drafting

import "errors"

var (
	ErrNoAPIKey   = errors.New("gemini api key is required")
	ErrEmptyDraft = errors.New("model returned an empty draft")
)
