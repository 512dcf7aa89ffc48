package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/course"
	"github.com/JonMunkholm/certbatch/internal/ingest"
	"github.com/JonMunkholm/certbatch/internal/logging"
	"github.com/JonMunkholm/certbatch/internal/tabular"
)

// Upload decodes a candidate file and, when it yields at least one
// candidate, replaces the batch with them.
//
// Decode failures return no result and leave the batch untouched. When no
// candidate survives, the result is returned together with ErrNoCandidates
// so the caller can still show the validation errors.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (*UploadResult, error) {
	logger := logging.WithFields(ctx, "file", fileName, "size", len(data))

	if len(data) == 0 {
		return nil, ErrNoFile
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	format, err := tabular.DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	if err := s.uploads.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.uploads.Release()

	grid, err := tabular.Decode(format, data)
	if err != nil {
		logger.Warn("decode failed", "format", format, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := (&ingest.Pipeline{Logger: logger}).Run(grid)
	result := &UploadResult{
		FileName:     fileName,
		Format:       format,
		Rows:         res.RowCount(),
		Accepted:     len(res.Candidates),
		Dropped:      res.Dropped,
		Errors:       res.Errors,
		ErrorPreview: ingest.SummarizeErrors(res.Errors, s.opts.ErrorPreview),
		Candidates:   res.Candidates,
	}

	if len(res.Candidates) == 0 {
		logger.Info("upload yielded no candidates", "rows", result.Rows, "errors", len(res.Errors))
		return result, ErrNoCandidates
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return result, ErrBatchRunning
	}
	s.store.Replace(res.Candidates)
	s.resetSink()

	logger.Info("candidates loaded",
		"format", format,
		"rows", result.Rows,
		"accepted", result.Accepted,
		"dropped", len(result.Dropped),
		"errors", len(result.Errors),
	)
	return result, nil
}

var manualEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ManualEntry is a single candidate typed in by hand.
type ManualEntry struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Course string `json:"course"`
}

// Validate returns one message per invalid field, keyed by field name.
func (e ManualEntry) Validate() map[string]string {
	problems := make(map[string]string)

	if strings.TrimSpace(e.Name) == "" {
		problems["name"] = "Name is required"
	}

	email := strings.TrimSpace(e.Email)
	switch {
	case email == "":
		problems["email"] = "Email is required"
	case !manualEmail.MatchString(email):
		problems["email"] = "Please enter a valid email address"
	}

	if _, ok := parseCourse(e.Course); !ok {
		problems["course"] = "Please select a course"
	}
	return problems
}

// parseCourse accepts a canonical course name or slug.
func parseCourse(s string) (course.Course, bool) {
	if c, ok := course.Parse(s); ok {
		return c, true
	}
	return course.ParseSlug(strings.TrimSpace(s))
}

// AddManual appends a hand-entered candidate for a single course.
func (s *Service) AddManual(ctx context.Context, entry ManualEntry) (batch.Candidate, error) {
	if problems := entry.Validate(); len(problems) > 0 {
		fields := make([]string, 0, len(problems))
		for _, f := range []string{"name", "email", "course"} {
			if msg, ok := problems[f]; ok {
				fields = append(fields, msg)
			}
		}
		return batch.Candidate{}, fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(fields, "; "))
	}
	crs, _ := parseCourse(entry.Course)

	s.mu.Lock()
	s.manualSeq++
	id := fmt.Sprintf("manual-%d-%d", s.opts.Clock().UnixMilli(), s.manualSeq)
	s.mu.Unlock()

	cand := batch.NewCandidate(id, strings.TrimSpace(entry.Name), strings.TrimSpace(entry.Email), []course.Course{crs})
	s.store.Append(cand)

	logging.FromContext(ctx).Info("manual candidate added", "candidate_id", id, "course", crs.String())
	return cand, nil
}
