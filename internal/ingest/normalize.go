package ingest

import (
	"strings"

	"github.com/JonMunkholm/certbatch/internal/course"
)

// courseSeparator joins classified course names in a NormalizedRow.
const courseSeparator = ", "

// SplitCourses splits a course cell on commas and trims each token. Empty
// tokens are skipped.
func SplitCourses(cell string) []string {
	parts := strings.Split(cell, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// NormalizeCourses classifies every token of a course cell. Recognised
// tokens become canonical course names; others are kept as written.
// Applying it twice gives the same result as applying it once.
//
// A cell holding only separators has no tokens but is not blank; it is
// returned trimmed so validation still sees the raw value.
func NormalizeCourses(cell string) string {
	tokens := SplitCourses(cell)
	if len(tokens) == 0 {
		return strings.TrimSpace(cell)
	}
	for i, tok := range tokens {
		tokens[i] = course.Resolve(tok)
	}
	return strings.Join(tokens, courseSeparator)
}
