package model

// Outcome of one control within an autofill pass.
type Outcome string

// Pass outcomes.
const (
	OutcomeApplied    Outcome = "applied"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeUnmatched  Outcome = "unmatched"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// ControlReport records what happened to one control during a pass.
type ControlReport struct {
	Control FormControl `json:"control"`
	Intent  Intent      `json:"intent,omitempty"`
	Value   string      `json:"value,omitempty"`
	Source  Source      `json:"source"`
	Outcome Outcome     `json:"outcome"`
	Error   string      `json:"error,omitempty"`
}

// PassSummary aggregates an autofill pass.
type PassSummary struct {
	PassID     string          `json:"pass_id"`
	Controls   int             `json:"controls"`
	Resolved   int             `json:"resolved"`
	Unresolved int             `json:"unresolved"`
	Unmatched  int             `json:"unmatched"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	BySource   map[Source]int  `json:"by_source,omitempty"`
	Reports    []ControlReport `json:"reports,omitempty"`
}

// Add folds one control report into the summary.
func (s *PassSummary) Add(r ControlReport) {
	s.Controls++
	switch r.Outcome {
	case OutcomeApplied:
		s.Resolved++
		if s.BySource == nil {
			s.BySource = make(map[Source]int)
		}
		s.BySource[r.Source]++
	case OutcomeUnresolved:
		s.Unresolved++
	case OutcomeUnmatched:
		s.Unmatched++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Reports = append(s.Reports, r)
}

// SaveSummary aggregates a save pass.
type SaveSummary struct {
	Saved   int `json:"saved"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}
