package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/ingest"
	"github.com/JonMunkholm/certbatch/internal/tabular"
)

var (
	ErrNoFile       = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file too large")
	ErrNoCandidates = errors.New("no valid candidates found")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrNotEnrolled  = errors.New("candidate is not enrolled in that course")
	ErrBatchRunning = errors.New("batch already running")
	ErrBatchEmpty   = errors.New("batch is empty")
	ErrRunNotFound  = errors.New("no batch run found")
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize          int64
	MaxConcurrentUploads int
	UploadWait           time.Duration
	UploadTimeout        time.Duration

	// ErrorPreview is how many validation errors UploadResult.ErrorPreview
	// lists before summarising the rest.
	ErrorPreview int

	ItemDelay        time.Duration
	CandidateTimeout time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Defaults for zero Options fields.
const (
	DefaultMaxFileSize   = 10 << 20
	DefaultUploadTimeout = 2 * time.Minute
	DefaultErrorPreview  = 5
)

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	if o.ErrorPreview <= 0 {
		o.ErrorPreview = DefaultErrorPreview
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// UploadResult describes one ingested file.
type UploadResult struct {
	FileName     string                   `json:"fileName"`
	Format       tabular.Format           `json:"format"`
	Rows         int                      `json:"rows"`
	Accepted     int                      `json:"accepted"`
	Dropped      []ingest.Drop            `json:"dropped"`
	Errors       []ingest.ValidationError `json:"errors"`
	ErrorPreview []string                 `json:"errorPreview"`
	Candidates   []batch.Candidate        `json:"candidates"`
}

// RunStatus is the externally visible state of a batch run.
type RunStatus struct {
	ID        string         `json:"id"`
	StartedAt time.Time      `json:"startedAt"`
	Progress  batch.Progress `json:"progress"`
	Done      bool           `json:"done"`
	Summary   *batch.Summary `json:"summary,omitempty"`
}

type activeRun struct {
	ID        string
	StartedAt time.Time
	Cancel    context.CancelFunc
	Done      chan struct{}

	mu        sync.Mutex
	progress  batch.Progress
	summary   *batch.Summary
	listeners []chan batch.Progress
	closed    bool
}

func (run *activeRun) status() RunStatus {
	run.mu.Lock()
	defer run.mu.Unlock()
	return RunStatus{
		ID:        run.ID,
		StartedAt: run.StartedAt,
		Progress:  run.progress,
		Done:      run.closed,
		Summary:   run.summary,
	}
}

func (run *activeRun) finished() bool {
	select {
	case <-run.Done:
		return true
	default:
		return false
	}
}

// setProgress records p and sends it to all listeners.
func (run *activeRun) setProgress(p batch.Progress) {
	run.mu.Lock()
	defer run.mu.Unlock()

	run.progress = p
	for _, ch := range run.listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// subscribe returns a channel primed with the current progress. For a run
// that has already finished the channel is closed straight away.
func (run *activeRun) subscribe() <-chan batch.Progress {
	run.mu.Lock()
	defer run.mu.Unlock()

	ch := make(chan batch.Progress, 16)
	ch <- run.progress
	if run.closed {
		close(ch)
		return ch
	}
	run.listeners = append(run.listeners, ch)
	return ch
}

// finish stores the summary and closes all listener channels.
func (run *activeRun) finish(summary batch.Summary) {
	run.mu.Lock()
	defer run.mu.Unlock()

	run.summary = &summary
	run.closed = true
	for _, ch := range run.listeners {
		close(ch)
	}
	run.listeners = nil
}
