package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/certbatch/internal/course"
)

// ============================================================================
// Store Tests
// ============================================================================

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore()
	s.Replace([]Candidate{
		NewCandidate("candidate-0", "Ada", "ada@x.com", []course.Course{course.PythonProgramming}),
	})

	snap := s.Snapshot()
	snap[0].Name = "changed"
	snap[0].Courses[0] = course.Cybersecurity

	got, err := s.Get("candidate-0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Ada" || got.Courses[0] != course.PythonProgramming {
		t.Errorf("store mutated through snapshot: %+v", got)
	}
}

func TestStore_UpdateAndAppend(t *testing.T) {
	s := NewStore()
	s.Append(NewCandidate("a", "Ada", "ada@x.com", []course.Course{course.PythonProgramming}))
	s.Append(NewCandidate("b", "Alan", "alan@x.com", []course.Course{course.Cybersecurity}))

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	before := s.Snapshot()
	updated, err := s.Update("b", func(c Candidate) Candidate {
		c.Status = StatusCompleted
		return c
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", updated.Status)
	}
	if before[1].Status != StatusPending {
		t.Error("earlier snapshot observed a later update")
	}

	if _, err := s.Update("missing", func(c Candidate) Candidate { return c }); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrCandidateNotFound", err)
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d", s.Len())
	}
}

func TestStats(t *testing.T) {
	cands := []Candidate{
		{Courses: []course.Course{1, 2}, CertificatesGenerated: 2, Status: StatusCompleted},
		{Courses: []course.Course{3}, CertificatesGenerated: 0, Status: StatusError},
		{Courses: []course.Course{4}, Status: StatusPending},
	}
	want := Stats{TotalCandidates: 3, TotalCertificates: 4, Generated: 2, Completed: 1, Failed: 1}
	got := ComputeStats(cands)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if got.Percent() != 50 {
		t.Errorf("Percent = %d, want 50", got.Percent())
	}
	if (Stats{}).Percent() != 0 {
		t.Error("empty stats should report 0 percent")
	}
}

// ============================================================================
// Runner Tests
// ============================================================================

type recordingGenerator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (g *recordingGenerator) Generate(_ context.Context, c Candidate, crs course.Course) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c.ID+"/"+crs.Slug())
	if g.fail[c.ID] {
		return errors.New("render failed")
	}
	return nil
}

func newRunStore() *Store {
	s := NewStore()
	s.Replace([]Candidate{
		NewCandidate("a", "Ada", "ada@x.com", []course.Course{course.PythonProgramming, course.Cybersecurity}),
		NewCandidate("b", "Bad", "bad@x.com", []course.Course{course.MSOfficeForAdministrators}),
		NewCandidate("c", "Cal", "cal@x.com", []course.Course{course.DataAnalysisAnalytics}),
	})
	return s
}

func TestRunner_FailureIsolation(t *testing.T) {
	store := newRunStore()
	gen := &recordingGenerator{fail: map[string]bool{"b": true}}
	r := &Runner{Generator: gen}

	var events []Progress
	summary := r.Run(context.Background(), store, func(p Progress) { events = append(events, p) })

	if summary.Completed != 2 || summary.Failed != 1 || summary.Generated != 3 {
		t.Errorf("summary = %+v", summary)
	}

	statuses := map[string]Status{}
	for _, c := range store.Snapshot() {
		statuses[c.ID] = c.Status
	}
	want := map[string]Status{"a": StatusCompleted, "b": StatusError, "c": StatusCompleted}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}

	a, _ := store.Get("a")
	if a.CertificatesGenerated != 2 {
		t.Errorf("a.CertificatesGenerated = %d, want 2", a.CertificatesGenerated)
	}
	if diff := cmp.Diff([]course.Course{course.PythonProgramming, course.Cybersecurity}, a.ProcessedCourses); diff != "" {
		t.Errorf("processed mismatch (-want +got):\n%s", diff)
	}

	if len(events) == 0 {
		t.Fatal("no progress events")
	}
	if events[0].Phase != PhaseStarting || events[0].Total != 4 {
		t.Errorf("first event = %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Phase != PhaseComplete || last.Generated != 3 || last.Failed != 1 {
		t.Errorf("last event = %+v", last)
	}
}

func TestRunner_RerunSkipsProcessedCourses(t *testing.T) {
	store := newRunStore()
	gen := &recordingGenerator{fail: map[string]bool{"b": true}}
	r := &Runner{Generator: gen}
	r.Run(context.Background(), store, nil)

	gen.fail = nil
	gen.calls = nil
	summary := r.Run(context.Background(), store, nil)

	if diff := cmp.Diff([]string{"b/ms-office"}, gen.calls); diff != "" {
		t.Errorf("second run calls mismatch (-want +got):\n%s", diff)
	}
	if summary.Completed != 3 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	tests := []struct {
		name string
		// cancelAt is the generator call (1-based) that cancels the run.
		cancelAt int
		// abort makes the cancelling call fail with the context error.
		abort bool
		// done lists courses of candidate "a" generated by an earlier run.
		done          []course.Course
		wantStatus    map[string]Status
		wantGenerated int
		wantCompleted int
	}{
		{
			name:          "during pacing delay with courses left",
			cancelAt:      1,
			wantStatus:    map[string]Status{"a": StatusPending, "b": StatusPending, "c": StatusPending},
			wantGenerated: 1,
		},
		{
			name:          "during pacing delay after last course",
			cancelAt:      1,
			done:          []course.Course{course.PythonProgramming},
			wantStatus:    map[string]Status{"a": StatusCompleted, "b": StatusPending, "c": StatusPending},
			wantGenerated: 1,
			wantCompleted: 1,
		},
		{
			name:          "generator aborted",
			cancelAt:      1,
			abort:         true,
			wantStatus:    map[string]Status{"a": StatusPending, "b": StatusPending, "c": StatusPending},
			wantGenerated: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newRunStore()
			if _, err := store.Update("a", func(c Candidate) Candidate {
				c.ProcessedCourses = tt.done
				return c
			}); err != nil {
				t.Fatal(err)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			calls := 0
			gen := GeneratorFunc(func(ctx context.Context, _ Candidate, _ course.Course) error {
				calls++
				if calls == tt.cancelAt {
					cancel()
					if tt.abort {
						return ctx.Err()
					}
				}
				return nil
			})
			r := &Runner{Generator: gen, Delay: time.Hour}

			var events []Progress
			done := make(chan Summary, 1)
			go func() { done <- r.Run(ctx, store, func(p Progress) { events = append(events, p) }) }()

			var summary Summary
			select {
			case summary = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("run did not stop after cancellation")
			}

			if !summary.Cancelled {
				t.Errorf("summary = %+v, want cancelled", summary)
			}
			if summary.Failed != 0 || summary.Generated != tt.wantGenerated || summary.Completed != tt.wantCompleted {
				t.Errorf("summary = %+v", summary)
			}

			statuses := map[string]Status{}
			for _, c := range store.Snapshot() {
				statuses[c.ID] = c.Status
			}
			if diff := cmp.Diff(tt.wantStatus, statuses); diff != "" {
				t.Errorf("statuses mismatch (-want +got):\n%s", diff)
			}

			last := events[len(events)-1]
			if last.Phase != PhaseCancelled || last.Failed != 0 || last.Error != "" {
				t.Errorf("last event = %+v", last)
			}
		})
	}
}

func TestRunner_CandidateTimeoutIsFailure(t *testing.T) {
	store := NewStore()
	store.Replace([]Candidate{
		NewCandidate("a", "Ada", "ada@x.com", []course.Course{course.PythonProgramming}),
	})

	gen := GeneratorFunc(func(ctx context.Context, _ Candidate, _ course.Course) error {
		<-ctx.Done()
		return ctx.Err()
	})
	r := &Runner{Generator: gen, CandidateTimeout: 10 * time.Millisecond}

	summary := r.Run(context.Background(), store, nil)
	if summary.Cancelled || summary.Failed != 1 {
		t.Errorf("summary = %+v, want one failure", summary)
	}
	if a, _ := store.Get("a"); a.Status != StatusError {
		t.Errorf("status = %s, want %s", a.Status, StatusError)
	}
}

func TestProgress_Percent(t *testing.T) {
	if got := (Progress{Generated: 1, Total: 4}).Percent(); got != 25 {
		t.Errorf("Percent = %d, want 25", got)
	}
	if got := (Progress{}).Percent(); got != 0 {
		t.Errorf("Percent = %d, want 0", got)
	}
}

// ============================================================================
// Export Tests
// ============================================================================

func TestExport_CompletedOnly(t *testing.T) {
	done1 := NewCandidate("a", "Ada", "ada@x.com", []course.Course{course.PythonProgramming, course.Cybersecurity})
	done1.ProcessedCourses = []course.Course{course.PythonProgramming, course.Cybersecurity}
	done1.CertificatesGenerated = 2
	done1.Status = StatusCompleted

	done2 := NewCandidate("b", "Alan", "alan@x.com", []course.Course{course.DataAnalysisAnalytics})
	done2.ProcessedCourses = []course.Course{course.DataAnalysisAnalytics}
	done2.CertificatesGenerated = 1
	done2.Status = StatusCompleted

	pending := NewCandidate("c", "Grace", "grace@x.com", []course.Course{course.MSOfficeForAdministrators})

	now := time.Date(2025, 7, 20, 9, 30, 0, 0, time.UTC)
	exp := Export([]Candidate{done1, pending, done2}, now, NewBatchID(now))

	if len(exp.Candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(exp.Candidates))
	}
	want := Metadata{
		TotalCandidates:   3,
		TotalCertificates: 3,
		ExportDate:        "2025-07-20T09:30:00.000Z",
		BatchID:           "batch_1753003800000",
	}
	if diff := cmp.Diff(want, exp.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if exp.Candidates[1].Name != "Alan" {
		t.Errorf("export order not preserved: %+v", exp.Candidates)
	}
}

func TestExport_JSONShape(t *testing.T) {
	c := NewCandidate("a", "Ada", "ada@x.com", []course.Course{course.PythonProgramming})
	c.ProcessedCourses = []course.Course{course.PythonProgramming}
	c.CertificatesGenerated = 1
	c.Status = StatusCompleted

	data, err := Export([]Candidate{c}, time.Unix(0, 0), "batch_0").JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded struct {
		Candidates []struct {
			Name                  string   `json:"name"`
			Email                 string   `json:"email"`
			Courses               []string `json:"courses"`
			CertificatesGenerated int      `json:"certificatesGenerated"`
		} `json:"candidates"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"Python Programming"}, decoded.Candidates[0].Courses); diff != "" {
		t.Errorf("courses mismatch (-want +got):\n%s", diff)
	}
	for _, key := range []string{"totalCandidates", "totalCertificates", "exportDate", "batchId"} {
		if _, ok := decoded.Metadata[key]; !ok {
			t.Errorf("metadata missing %q", key)
		}
	}
}

func TestExport_EmptyBatchHasEmptyArray(t *testing.T) {
	data, err := Export(nil, time.Unix(0, 0), "batch_0").JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if string(decoded["candidates"]) != "[]" {
		t.Errorf("candidates = %s, want []", decoded["candidates"])
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName("batch_42"); got != "certificate_batch_batch_42.json" {
		t.Errorf("ExportFileName = %q", got)
	}
}
