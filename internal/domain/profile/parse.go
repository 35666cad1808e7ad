package profile

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/okian/formfill/internal/domain/model"
)

const (
	sectionSpan    = 6
	summaryRuneCap = 1200
)

var (
	emailPattern    = regexp.MustCompile(`[\w.+-]+@[\w.-]+`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
	linkedInPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/[^\s,;|]+`)
	gitHubPattern   = regexp.MustCompile(`(?i)(?:https?://)?github\.com/[^\s,;|]+`)
)

// Parse extracts a profile from plain résumé text: the first non-empty line is
// the name, the first e-mail and phone-shaped strings are contact details, and
// the lines after the skill, education and experience headings fill those sections.
func Parse(text string) model.Profile {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}

	p := model.Profile{
		Email:      emailPattern.FindString(text),
		Phone:      phonePattern.FindString(text),
		Skills:     section(lines, "skill"),
		Education:  section(lines, "education"),
		Experience: section(lines, "experience"),
		Summary:    truncateRunes(strings.Join(strings.Fields(text), " "), summaryRuneCap),
		Links: model.Links{
			LinkedIn: linkedInPattern.FindString(text),
			GitHub:   gitHubPattern.FindString(text),
		},
	}
	if len(lines) > 0 {
		p.FullName = lines[0]
	}
	return p
}

// section returns up to sectionSpan lines after the first line mentioning keyword.
func section(lines []string, keyword string) []string {
	for i, l := range lines {
		if strings.Contains(strings.ToLower(l), keyword) {
			end := min(i+1+sectionSpan, len(lines))
			if i+1 >= end {
				return nil
			}
			out := make([]string, end-i-1)
			copy(out, lines[i+1:end])
			return out
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
