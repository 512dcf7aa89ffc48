package course

import "strings"

// rule maps a lower-cased token to a course when match returns true.
type rule struct {
	course Course
	match  func(lower string) bool
}

// rules are evaluated in order and the first match wins. Tokens can satisfy
// more than one rule ("python for data analysis"), so new rules must be
// appended, never inserted, unless reclassification is intended.
var rules = []rule{
	{PythonProgramming, func(s string) bool {
		return strings.Contains(s, "python")
	}},
	{DataAnalysisAnalytics, func(s string) bool {
		return strings.Contains(s, "data") &&
			(strings.Contains(s, "analytic") || strings.Contains(s, "analysis"))
	}},
	{MSOfficeForAdministrators, func(s string) bool {
		return strings.Contains(s, "microsoft") ||
			strings.Contains(s, "ms office") ||
			strings.Contains(s, "office")
	}},
	{Cybersecurity, func(s string) bool {
		return strings.Contains(s, "cyber")
	}},
}

// Classify maps one free-text course token to a canonical course.
// The token is trimmed and matched case-insensitively.
func Classify(token string) (Course, bool) {
	lower := strings.ToLower(strings.TrimSpace(token))
	if lower == "" {
		return 0, false
	}
	for _, r := range rules {
		if r.match(lower) {
			return r.course, true
		}
	}
	return 0, false
}

// Resolve returns the canonical name for token, or the trimmed token itself
// when no rule matches. Resolving a canonical name returns it unchanged.
func Resolve(token string) string {
	token = strings.TrimSpace(token)
	if c, ok := Classify(token); ok {
		return c.String()
	}
	return token
}
