package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/certbatch/internal/course"
)

// ExportDateLayout is the ISO-8601 layout used for Metadata.ExportDate.
const ExportDateLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportCandidate is one completed candidate in a batch export.
type ExportCandidate struct {
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	Courses               []course.Course `json:"courses"`
	CertificatesGenerated int             `json:"certificatesGenerated"`
}

// Metadata describes the whole batch, regardless of candidate status.
type Metadata struct {
	TotalCandidates   int    `json:"totalCandidates"`
	TotalCertificates int    `json:"totalCertificates"`
	ExportDate        string `json:"exportDate"`
	BatchID           string `json:"batchId"`
}

// BatchExport is the JSON summary artifact of a batch.
type BatchExport struct {
	Candidates []ExportCandidate `json:"candidates"`
	Metadata   Metadata          `json:"metadata"`
}

// NewBatchID returns a batch identifier derived from now.
func NewBatchID(now time.Time) string {
	return fmt.Sprintf("batch_%d", now.UnixMilli())
}

// ExportFileName returns the download name of a batch export.
func ExportFileName(batchID string) string {
	return "certificate_batch_" + batchID + ".json"
}

// Export summarises candidates. Only completed candidates are listed, with
// the courses they actually received; the totals cover every candidate.
func Export(candidates []Candidate, now time.Time, batchID string) BatchExport {
	out := BatchExport{
		Candidates: []ExportCandidate{},
		Metadata: Metadata{
			TotalCandidates: len(candidates),
			ExportDate:      now.UTC().Format(ExportDateLayout),
			BatchID:         batchID,
		},
	}

	for _, c := range candidates {
		out.Metadata.TotalCertificates += c.CertificatesGenerated
		if c.Status != StatusCompleted {
			continue
		}
		courses := append([]course.Course{}, c.ProcessedCourses...)
		out.Candidates = append(out.Candidates, ExportCandidate{
			Name:                  c.Name,
			Email:                 c.Email,
			Courses:               courses,
			CertificatesGenerated: c.CertificatesGenerated,
		})
	}
	return out
}

// JSON encodes the export indented by two spaces.
func (e BatchExport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode batch export: %w", err)
	}
	return data, nil
}
