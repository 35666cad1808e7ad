package drafting

import (
	"strings"

	"github.com/okian/formfill/internal/domain/model"
)

const notProvided = "[not provided]"

// Prompt renders the drafting prompt for req.
func Prompt(req model.DraftRequest) string {
	summary := strings.TrimSpace(req.ProfileSummary)
	if summary == "" {
		summary = notProvided
	}

	var b strings.Builder
	b.WriteString("You are drafting a concise application response.\n")
	b.WriteString("Question: " + strings.TrimSpace(req.Question) + "\n\n")
	b.WriteString("Candidate summary: " + summary + "\n")
	if ctx := jobContext(req.Job); ctx != "" {
		b.WriteString("Context: " + ctx)
	}
	b.WriteString("\n\nReturn a short, specific answer (3-6 sentences).")
	return b.String()
}

func jobContext(j model.JobContext) string {
	var bits []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			bits = append(bits, label+": "+v)
		}
	}
	add("Company", j.Company)
	add("Role", j.Role)
	add("Posting", j.URL)
	add("Job description snippet", j.Description)
	return strings.Join(bits, "\n")
}
