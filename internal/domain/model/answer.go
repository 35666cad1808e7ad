package model

import "time"

// Source identifies the resolution tier that produced a value.
type Source string

// Resolution sources, in precedence order.
const (
	SourceProfile   Source = "profile"
	SourceStore     Source = "store"
	SourceHeuristic Source = "heuristic"
	SourceGenerated Source = "generated"
	SourceNone      Source = "none"
)

// Resolution is the outcome of resolving one control.
type Resolution struct {
	Value  string `json:"value,omitempty"`
	Source Source `json:"source"`
	// Persisted is set when a heuristic pick was written back to the store.
	Persisted bool `json:"persisted,omitempty"`
}

// Resolved reports whether a usable value was found.
func (r Resolution) Resolved() bool {
	return r.Source != SourceNone && r.Value != ""
}

// Unresolved is the empty resolution.
func Unresolved() Resolution {
	return Resolution{Source: SourceNone}
}

// AnswerRecord is a persisted question/answer pair keyed by the normalized question.
type AnswerRecord struct {
	Question  string    `json:"question"`
	Key       string    `json:"normalized,omitempty"`
	Answer    string    `json:"answer"`
	Choices   []string  `json:"choices,omitempty"`
	Intent    Intent    `json:"intent,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Lookup is the answer store's reply to a resolve request.
type Lookup struct {
	Found  bool   `json:"found"`
	Answer string `json:"answer,omitempty"`
	// Source is "question" for a direct hit or "intent" for the intent fallback.
	Source string `json:"source,omitempty"`
}

// Lookup sources.
const (
	LookupByQuestion = "question"
	LookupByIntent   = "intent"
)

// UpsertResult is the answer store's reply to a write.
type UpsertResult struct {
	// Updated is true when an existing answer changed.
	Updated bool `json:"updated"`
}

// JobContext describes the page being filled, for drafting prompts.
type JobContext struct {
	URL         string `json:"url,omitempty"`
	Role        string `json:"role,omitempty"`
	Company     string `json:"company,omitempty"`
	Description string `json:"job_description,omitempty"`
}

// Empty reports whether no context is known.
func (j JobContext) Empty() bool {
	return j.URL == "" && j.Role == "" && j.Company == "" && j.Description == ""
}

// DraftRequest asks the drafting service for an open-ended answer.
type DraftRequest struct {
	Question       string     `json:"question"`
	Job            JobContext `json:"job_context"`
	ProfileSummary string     `json:"resume_summary,omitempty"`
}
