package views

import (
	"strconv"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/course"
)

// DashboardParams is everything the dashboard shows.
type DashboardParams struct {
	Candidates  []batch.Candidate
	Stats       batch.Stats
	Running     bool
	RunID       string
	SignOut     bool
	MaxFileSize int64
}

// PreviewParams describes one certificate preview.
type PreviewParams struct {
	Candidate batch.Candidate
	Course    course.Course
	Content   certificate.Content
	SignOut   bool
}

// DownloadURL is the PDF endpoint for the previewed certificate.
func (p PreviewParams) DownloadURL() string {
	return "/api/certificates/" + p.Candidate.ID + "/" + p.Course.Slug()
}

func previewURL(c batch.Candidate, crs course.Course) string {
	return "/preview/" + c.ID + "/" + crs.Slug()
}

// certificateCount renders "generated / enrolled" for the candidate table.
func certificateCount(c batch.Candidate) string {
	return strconv.Itoa(c.CertificatesGenerated) + " / " + strconv.Itoa(len(c.Courses))
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}
