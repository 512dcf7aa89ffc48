// Package course defines the closed set of training courses a certificate
// can be issued for, and the rules that map free-text course names onto it.
//
// The catalog table below is the single source for canonical names, display
// phrases and URL slugs. The classifier and the certificate renderer both read
// from it, so adding a course is one new constant plus one catalog row.
package course

import (
	"fmt"
	"strings"
)

// Course is a canonical course identifier. The zero value is not a course.
type Course int

const (
	DataAnalysisAnalytics Course = iota + 1
	MSOfficeForAdministrators
	PythonProgramming
	Cybersecurity
)

// numCourses is the number of canonical courses. The catalog array is sized
// by it, so a missing catalog row is caught by catalogComplete at init.
const numCourses = 4

type entry struct {
	name    string // canonical name, as stored on candidates and exported
	display string // phrase printed on the certificate
	slug    string // URL-safe identifier
}

var catalog = [numCourses]entry{
	DataAnalysisAnalytics - 1:     {name: "Data Analysis/Analytics", display: "DATA ANALYSIS/ANALYTICS", slug: "data-analysis"},
	MSOfficeForAdministrators - 1: {name: "MS Office for Administrators", display: "MS OFFICE FOR ADMINISTRATORS", slug: "ms-office"},
	PythonProgramming - 1:         {name: "Python Programming", display: "INTRODUCTION TO PYTHON PROGRAMMING", slug: "python"},
	Cybersecurity - 1:             {name: "Cybersecurity", display: "CYBERSECURITY", slug: "cybersecurity"},
}

func init() {
	if err := catalogComplete(); err != nil {
		panic(err)
	}
}

func catalogComplete() error {
	seen := make(map[string]bool, numCourses)
	for i, e := range catalog {
		if e.name == "" || e.display == "" || e.slug == "" {
			return fmt.Errorf("course catalog: entry %d is incomplete", i+1)
		}
		if seen[e.name] {
			return fmt.Errorf("course catalog: duplicate name %q", e.name)
		}
		seen[e.name] = true
	}
	return nil
}

// All returns every canonical course in declaration order.
func All() []Course {
	out := make([]Course, numCourses)
	for i := range out {
		out[i] = Course(i + 1)
	}
	return out
}

// Valid reports whether c is a member of the canonical set.
func (c Course) Valid() bool {
	return c >= 1 && c <= numCourses
}

// String returns the canonical course name.
func (c Course) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Course(%d)", int(c))
	}
	return catalog[c-1].name
}

// DisplayName returns the phrase printed on a certificate for c.
func (c Course) DisplayName() string {
	if !c.Valid() {
		return strings.ToUpper(c.String())
	}
	return catalog[c-1].display
}

// Slug returns the URL-safe identifier for c.
func (c Course) Slug() string {
	if !c.Valid() {
		return ""
	}
	return catalog[c-1].slug
}

// Parse returns the course whose canonical name equals name (case-insensitive).
func Parse(name string) (Course, bool) {
	name = strings.TrimSpace(name)
	for i, e := range catalog {
		if strings.EqualFold(e.name, name) {
			return Course(i + 1), true
		}
	}
	return 0, false
}

// ParseSlug returns the course with the given slug.
func ParseSlug(slug string) (Course, bool) {
	for i, e := range catalog {
		if e.slug == slug {
			return Course(i + 1), true
		}
	}
	return 0, false
}

// MarshalText encodes c as its canonical name.
func (c Course) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal course: invalid value %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a canonical course name.
func (c *Course) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unmarshal course: unknown course %q", string(text))
	}
	*c = parsed
	return nil
}
