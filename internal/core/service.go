package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/course"
	"github.com/JonMunkholm/certbatch/internal/logging"
)

// Service owns one session's batch and everything done to it.
type Service struct {
	opts     Options
	store    *batch.Store
	renderer *certificate.Renderer
	sink     certificate.Sink

	uploads *Limiter
	runs    *Limiter

	mu        sync.RWMutex
	run       *activeRun
	manualSeq int
}

// resetter is implemented by sinks that can drop stored certificates.
type resetter interface {
	Reset()
}

// getter is implemented by sinks that can return stored certificates.
type getter interface {
	Get(name string) ([]byte, bool)
}

// NewService creates a Service. Generated certificates are written to sink.
func NewService(renderer *certificate.Renderer, sink certificate.Sink, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		opts:     opts,
		store:    batch.NewStore(),
		renderer: renderer,
		sink:     sink,
		uploads:  NewLimiter(opts.MaxConcurrentUploads, opts.UploadWait),
		runs:     NewLimiter(1, time.Second),
	}
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// Candidates returns a snapshot of the batch.
func (s *Service) Candidates() []batch.Candidate {
	return s.store.Snapshot()
}

// Candidate returns one candidate of the batch.
func (s *Service) Candidate(id string) (batch.Candidate, error) {
	return s.store.Get(id)
}

// Stats summarises the batch.
func (s *Service) Stats() batch.Stats {
	return s.store.Stats()
}

// Clear empties the batch. It fails while a run is in progress.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		return ErrBatchRunning
	}
	n := s.store.Len()
	s.store.Clear()
	s.resetSink()

	logging.FromContext(ctx).Info("batch cleared", "candidates", n)
	return nil
}

// Running reports whether a batch run is in progress.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runningLocked()
}

func (s *Service) runningLocked() bool {
	return s.run != nil && !s.run.finished()
}

func (s *Service) resetSink() {
	if r, ok := s.sink.(resetter); ok {
		r.Reset()
	}
}

// StartBatch starts generating every missing certificate in the background
// and returns the run ID. Use SubscribeProgress to follow it.
func (s *Service) StartBatch(ctx context.Context) (string, error) {
	if s.store.Len() == 0 {
		return "", ErrBatchEmpty
	}
	if !s.runs.TryAcquire() {
		return "", ErrBatchRunning
	}

	runID := uuid.New().String()
	logger := logging.WithFields(ctx, "run_id", runID)

	runCtx, cancel := context.WithCancel(context.Background())
	run := &activeRun{
		ID:        runID,
		StartedAt: s.opts.Clock(),
		Cancel:    cancel,
		Done:      make(chan struct{}),
		progress:  batch.Progress{Phase: batch.PhaseStarting},
	}

	s.mu.Lock()
	s.run = run
	s.mu.Unlock()

	runner := &batch.Runner{
		Generator:        &certificate.Generator{Renderer: s.renderer, Sink: s.sink},
		Delay:            s.opts.ItemDelay,
		CandidateTimeout: s.opts.CandidateTimeout,
		Logger:           logger,
	}

	go func() {
		defer s.runs.Release()
		defer cancel()

		logger.Info("batch run started", "candidates", s.store.Len())
		summary := runner.Run(runCtx, s.store, run.setProgress)
		run.finish(summary)
		close(run.Done)

		logger.Info("batch run finished",
			"completed", summary.Completed,
			"failed", summary.Failed,
			"generated", summary.Generated,
			"cancelled", summary.Cancelled,
			"duration_ms", summary.Duration.Milliseconds(),
		)
	}()

	return runID, nil
}

// lookupRun returns the run with the given ID, or the latest run when id
// is empty.
func (s *Service) lookupRun(id string) (*activeRun, error) {
	s.mu.RLock()
	run := s.run
	s.mu.RUnlock()

	if run == nil {
		return nil, ErrRunNotFound
	}
	if id != "" && run.ID != id {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// SubscribeProgress returns a channel of progress updates for a run. The
// channel is closed when the run finishes.
func (s *Service) SubscribeProgress(runID string) (<-chan batch.Progress, error) {
	run, err := s.lookupRun(runID)
	if err != nil {
		return nil, err
	}
	return run.subscribe(), nil
}

// RunStatus returns the state of a run without blocking.
func (s *Service) RunStatus(runID string) (RunStatus, error) {
	run, err := s.lookupRun(runID)
	if err != nil {
		return RunStatus{}, err
	}
	return run.status(), nil
}

// CancelBatch stops a run after the certificate in progress.
func (s *Service) CancelBatch(runID string) error {
	run, err := s.lookupRun(runID)
	if err != nil {
		return err
	}
	run.Cancel()
	return nil
}

// WaitForBatch blocks until the run finishes or ctx ends.
func (s *Service) WaitForBatch(ctx context.Context, runID string) (batch.Summary, error) {
	run, err := s.lookupRun(runID)
	if err != nil {
		return batch.Summary{}, err
	}

	select {
	case <-run.Done:
		st := run.status()
		return *st.Summary, nil
	case <-ctx.Done():
		return batch.Summary{}, ctx.Err()
	}
}

// ExportBatch summarises the batch for download.
func (s *Service) ExportBatch(ctx context.Context) batch.BatchExport {
	now := s.opts.Clock()
	exp := batch.Export(s.store.Snapshot(), now, batch.NewBatchID(now))

	logging.FromContext(ctx).Info("batch exported",
		"batch_id", exp.Metadata.BatchID,
		"completed", len(exp.Candidates),
		"total", exp.Metadata.TotalCandidates,
	)
	return exp
}

// RenderCertificate returns the PDF certificate of a candidate for one of
// their courses. A certificate already produced by a run is reused.
func (s *Service) RenderCertificate(ctx context.Context, candidateID string, c course.Course) (string, []byte, error) {
	cand, err := s.store.Get(candidateID)
	if err != nil {
		return "", nil, err
	}
	if !cand.HasCourse(c) {
		return "", nil, fmt.Errorf("%w: %s", ErrNotEnrolled, c)
	}

	name := certificate.FileName(cand.Name, c)
	if g, ok := s.sink.(getter); ok && cand.Processed(c) {
		if data, ok := g.Get(certificate.StoredName(cand.ID, cand.Name, c)); ok {
			return name, data, nil
		}
	}

	data, err := s.renderer.Render(ctx, cand.Name, c)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

// Preview returns the certificate text of a candidate for one of their
// courses.
func (s *Service) Preview(candidateID string, c course.Course) (batch.Candidate, certificate.Content, error) {
	cand, err := s.store.Get(candidateID)
	if err != nil {
		return batch.Candidate{}, certificate.Content{}, err
	}
	if !cand.HasCourse(c) {
		return batch.Candidate{}, certificate.Content{}, fmt.Errorf("%w: %s", ErrNotEnrolled, c)
	}
	return cand, s.renderer.Template().Content(cand.Name, c), nil
}

// Shutdown cancels a running batch and waits for in-flight work.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	run := s.run
	s.mu.RUnlock()

	if run != nil {
		run.Cancel()
	}
	if err := s.runs.WaitForDrain(ctx); err != nil {
		return fmt.Errorf("wait for batch run: %w", err)
	}
	if err := s.uploads.WaitForDrain(ctx); err != nil {
		return fmt.Errorf("wait for uploads: %w", err)
	}
	return nil
}
