// Package batch holds the in-memory candidate list of one upload session and
// the serialized certificate generation run over it.
package batch

import (
	"slices"

	"github.com/JonMunkholm/certbatch/internal/course"
)

// Status is the generation state of a candidate.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Candidate is a person with the canonical courses they receive certificates for.
type Candidate struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	Courses               []course.Course `json:"courses"`
	ProcessedCourses      []course.Course `json:"processedCourses"`
	CertificatesGenerated int             `json:"certificatesGenerated"`
	Status                Status          `json:"status"`
}

// NewCandidate returns a pending candidate with no certificates generated.
func NewCandidate(id, name, email string, courses []course.Course) Candidate {
	return Candidate{
		ID:               id,
		Name:             name,
		Email:            email,
		Courses:          slices.Clone(courses),
		ProcessedCourses: []course.Course{},
		Status:           StatusPending,
	}
}

// Clone returns a deep copy of c.
func (c Candidate) Clone() Candidate {
	c.Courses = slices.Clone(c.Courses)
	c.ProcessedCourses = slices.Clone(c.ProcessedCourses)
	if c.ProcessedCourses == nil {
		c.ProcessedCourses = []course.Course{}
	}
	return c
}

// HasCourse reports whether the candidate is enrolled in crs.
func (c Candidate) HasCourse(crs course.Course) bool {
	return slices.Contains(c.Courses, crs)
}

// Processed reports whether a certificate for crs has already been generated.
func (c Candidate) Processed(crs course.Course) bool {
	return slices.Contains(c.ProcessedCourses, crs)
}

// Remaining returns the enrolled courses without a generated certificate.
func (c Candidate) Remaining() []course.Course {
	var out []course.Course
	for _, crs := range c.Courses {
		if !c.Processed(crs) {
			out = append(out, crs)
		}
	}
	return out
}

// Stats summarises a batch for the dashboard.
type Stats struct {
	TotalCandidates   int `json:"totalCandidates"`
	TotalCertificates int `json:"totalCertificates"`
	Generated         int `json:"generated"`
	Completed         int `json:"completed"`
	Failed            int `json:"failed"`
}

// Percent returns generated certificates as a percentage of all certificates.
func (s Stats) Percent() int {
	if s.TotalCertificates == 0 {
		return 0
	}
	return s.Generated * 100 / s.TotalCertificates
}

// ComputeStats counts certificates and statuses across candidates.
func ComputeStats(candidates []Candidate) Stats {
	s := Stats{TotalCandidates: len(candidates)}
	for _, c := range candidates {
		s.TotalCertificates += len(c.Courses)
		s.Generated += c.CertificatesGenerated
		switch c.Status {
		case StatusCompleted:
			s.Completed++
		case StatusError:
			s.Failed++
		}
	}
	return s
}
