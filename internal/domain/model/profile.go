package model

// Links holds the candidate's public profile URLs.
type Links struct {
	LinkedIn  string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty" yaml:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty" yaml:"portfolio,omitempty"`
	Website   string `json:"website,omitempty" yaml:"website,omitempty"`
}

// Profile is the structured candidate data the profile tier reads from.
type Profile struct {
	FullName   string   `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Email      string   `json:"email,omitempty" yaml:"email,omitempty"`
	Phone      string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location   string   `json:"location,omitempty" yaml:"location,omitempty"`
	Links      Links    `json:"links" yaml:"links"`
	Education  []string `json:"education,omitempty" yaml:"education,omitempty"`
	Experience []string `json:"experience,omitempty" yaml:"experience,omitempty"`
	Skills     []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	Summary    string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}
