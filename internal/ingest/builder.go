package ingest

import (
	"fmt"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/course"
)

// DropReason says why a row produced no candidate.
type DropReason string

const (
	DropMissingName  DropReason = "missing name"
	DropMissingEmail DropReason = "missing email"
	DropNoCourses    DropReason = "no recognised courses"
)

// Drop records a row the builder discarded. Row uses the same numbering as
// ValidationError.
type Drop struct {
	Row    int        `json:"row"`
	Reason DropReason `json:"reason"`
}

// Builder turns normalized rows into candidates. Discards are silent; the
// optional hooks observe them without changing the result.
type Builder struct {
	// OnUnclassified is called for each course token that is not a
	// canonical course.
	OnUnclassified func(row int, token string)

	// OnDrop is called for each row that yields no candidate.
	OnDrop func(d Drop)
}

// CandidateID returns the identifier of the candidate built from the data
// row at index i.
func CandidateID(i int) string {
	return fmt.Sprintf("candidate-%d", i)
}

// Build returns one pending candidate per usable row, in input order.
func (b *Builder) Build(rows []NormalizedRow) []batch.Candidate {
	out := make([]batch.Candidate, 0, len(rows))
	for i, r := range rows {
		line := i + headerRow + 1
		courses := b.courses(line, r.Courses)

		var reason DropReason
		switch {
		case r.Name == "":
			reason = DropMissingName
		case r.Email == "":
			reason = DropMissingEmail
		case len(courses) == 0:
			reason = DropNoCourses
		}
		if reason != "" {
			if b.OnDrop != nil {
				b.OnDrop(Drop{Row: line, Reason: reason})
			}
			continue
		}

		out = append(out, batch.NewCandidate(CandidateID(i), r.Name, r.Email, courses))
	}
	return out
}

// courses classifies the tokens of a course cell, keeping canonical courses
// in first-occurrence order without duplicates.
func (b *Builder) courses(line int, cell string) []course.Course {
	var out []course.Course
	seen := make(map[course.Course]bool, 4)
	for _, tok := range SplitCourses(cell) {
		c, ok := course.Classify(tok)
		if !ok {
			if b.OnUnclassified != nil {
				b.OnUnclassified(line, tok)
			}
			continue
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
