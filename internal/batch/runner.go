package batch

// runner.go generates certificates for every candidate in a batch, one at a
// time. A failure while generating any certificate of a candidate marks that
// candidate as StatusError and the run moves on to the next candidate.
//
// Progress is reported through a callback after every state change, which is
// independent from the optional pacing Delay between certificates.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/certbatch/internal/course"
)

// Generator produces the certificate artifact for one candidate-course pair.
type Generator interface {
	Generate(ctx context.Context, c Candidate, crs course.Course) error
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, c Candidate, crs course.Course) error

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, c Candidate, crs course.Course) error {
	return f(ctx, c, crs)
}

// Phase indicates the current stage of a run.
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
	PhaseCancelled  Phase = "cancelled"
)

// Progress is a snapshot of a run, emitted after each unit of work.
type Progress struct {
	Phase         Phase  `json:"phase"`
	CandidateID   string `json:"candidateId,omitempty"`
	CandidateName string `json:"candidateName,omitempty"`
	Course        string `json:"course,omitempty"`
	Status        Status `json:"status,omitempty"`
	Generated     int    `json:"generated"`
	Total         int    `json:"total"`
	Failed        int    `json:"failed"`
	Error         string `json:"error,omitempty"`
}

// Percent returns run progress as a percentage (0-100).
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Generated * 100 / p.Total
}

// ProgressFunc receives progress updates. It is called from the run goroutine.
type ProgressFunc func(Progress)

// Summary is the outcome of a finished run.
type Summary struct {
	Candidates int           `json:"candidates"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Generated  int           `json:"generated"`
	Duration   time.Duration `json:"duration"`
	Cancelled  bool          `json:"cancelled"`
}

// Runner walks a Store and generates the missing certificates.
type Runner struct {
	Generator Generator

	// Delay is an optional pause after each generated certificate, used to
	// pace interactive progress displays. Zero disables it.
	Delay time.Duration

	// CandidateTimeout bounds the generation of all certificates of one
	// candidate. Zero means no limit.
	CandidateTimeout time.Duration

	Logger *slog.Logger
}

// Run processes every candidate present in store when the run starts.
// Courses already in ProcessedCourses are skipped, so a run can be repeated
// after failures. Run returns early with Summary.Cancelled set when ctx ends;
// the candidate being processed at that point goes back to StatusPending if
// it still has courses left and is not counted as failed.
func (r *Runner) Run(ctx context.Context, store *Store, onProgress ProgressFunc) Summary {
	start := time.Now()
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	candidates := store.Snapshot()
	prog := Progress{Phase: PhaseStarting}
	for _, c := range candidates {
		prog.Total += len(c.Remaining())
	}
	notify(prog)

	summary := Summary{Candidates: len(candidates)}

	for _, c := range candidates {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		prog.Phase = PhaseProcessing
		prog.CandidateID = c.ID
		prog.CandidateName = c.Name
		prog.Course = ""
		prog.Error = ""

		generated, err := r.processCandidate(ctx, store, c, &prog, notify)
		summary.Generated += generated

		// Work interrupted by the end of the run is not a failure: the
		// candidate keeps its remaining courses for the next run.
		interrupted := err != nil && ctx.Err() != nil
		if interrupted {
			summary.Cancelled = true
			err = nil
		}

		if err != nil {
			summary.Failed++
			prog.Failed++
			prog.Error = err.Error()
			logger.Warn("certificate generation failed",
				"candidate_id", c.ID,
				"candidate", c.Name,
				"error", err,
			)
		}

		status := StatusError
		if err == nil {
			status = StatusCompleted
		}
		updated, uerr := store.Update(c.ID, func(cur Candidate) Candidate {
			cur.Status = status
			if status == StatusCompleted && len(cur.Remaining()) > 0 {
				cur.Status = StatusPending
			}
			return cur
		})
		if uerr != nil {
			// The batch was cleared or replaced mid-run.
			logger.Warn("candidate vanished during run", "candidate_id", c.ID)
		} else {
			status = updated.Status
		}
		if status == StatusCompleted {
			summary.Completed++
		}

		prog.Status = status
		notify(prog)

		if interrupted {
			break
		}
	}

	prog.Phase = PhaseComplete
	if summary.Cancelled {
		prog.Phase = PhaseCancelled
	}
	prog.CandidateID, prog.CandidateName, prog.Course, prog.Status = "", "", "", ""
	notify(prog)

	summary.Duration = time.Since(start)
	return summary
}

func (r *Runner) processCandidate(ctx context.Context, store *Store, c Candidate, prog *Progress, notify ProgressFunc) (int, error) {
	if _, err := store.Update(c.ID, func(cur Candidate) Candidate {
		cur.Status = StatusProcessing
		return cur
	}); err != nil {
		return 0, err
	}
	prog.Status = StatusProcessing
	notify(*prog)

	if r.CandidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CandidateTimeout)
		defer cancel()
	}

	generated := 0
	for _, crs := range c.Remaining() {
		if err := r.Generator.Generate(ctx, c, crs); err != nil {
			return generated, fmt.Errorf("generate %s certificate: %w", crs, err)
		}

		if _, err := store.Update(c.ID, func(cur Candidate) Candidate {
			cur.ProcessedCourses = append(cur.ProcessedCourses, crs)
			cur.CertificatesGenerated++
			return cur
		}); err != nil {
			return generated, err
		}
		generated++

		prog.Course = crs.String()
		prog.Generated++
		notify(*prog)

		if err := r.pause(ctx); err != nil {
			return generated, err
		}
	}
	return generated, nil
}

func (r *Runner) pause(ctx context.Context) error {
	if r.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(r.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
