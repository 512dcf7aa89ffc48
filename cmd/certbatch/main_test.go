package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/certbatch/internal/batch"
)

const candidatesCSV = "Full Name,E-mail,Course\n" +
	"Ada Lovelace,ada@x.com,\"Python Programming, python\"\n" +
	",blank@x.com,Cybersecurity\n" +
	"Alan Turing,alan@x.com,\"cyber security basics, MS Office\"\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the CLI with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--assets", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// ============================================================================
// Validate Command Tests
// ============================================================================

func TestValidate(t *testing.T) {
	path := writeFile(t, "cohort.csv", candidatesCSV)

	out, err := execute(t, "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	for _, want := range []string{
		"cohort.csv (csv): 3 rows, 2 candidates, 1 dropped",
		"Row 3: Missing candidate name",
		"Ada Lovelace",
		"2 candidates, 3 certificates to generate",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
	}{
		{"unsupported type", "cohort.txt", candidatesCSV, "FILE002"},
		{"no candidates", "cohort.csv", "Name,Email,Courses\n,nobody,\n", "VAL001"},
		{"header only", "cohort.csv", "Name,Email,Courses\n", "FILE005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "validate", writeFile(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "Code: "+tt.wantCode) {
				t.Errorf("error = %q, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil || !strings.Contains(err.Error(), "read candidate file") {
		t.Errorf("error = %v", err)
	}
}

// ============================================================================
// Generate Command Tests
// ============================================================================

func TestGenerate(t *testing.T) {
	path := writeFile(t, "cohort.csv", candidatesCSV)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "generate", path, "--out", outDir, "--export")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Generated 3 certificates for 2 of 2 candidates") {
		t.Errorf("summary missing:\n%s", out)
	}

	pdfs, err := filepath.Glob(filepath.Join(outDir, "*.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range pdfs {
		names = append(names, filepath.Base(p))
	}
	want := []string{
		"Ada_Lovelace_Python_Programming_Certificate_candidate-0.pdf",
		"Alan_Turing_Cybersecurity_Certificate_candidate-2.pdf",
		"Alan_Turing_MS_Office_for_Administrators_Certificate_candidate-2.pdf",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("certificates mismatch (-want +got):\n%s", diff)
	}

	exports, _ := filepath.Glob(filepath.Join(outDir, "certificate_batch_*.json"))
	if len(exports) != 1 {
		t.Fatalf("exports = %v, want one file", exports)
	}
	data, err := os.ReadFile(exports[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Ada Lovelace"`) {
		t.Errorf("export does not list candidates:\n%s", data)
	}
}

// fakeRun replays queued progress and closes the stream when the run
// finishes or is cancelled.
type fakeRun struct {
	progress  chan batch.Progress
	cancelled []string
	summary   batch.Summary
}

func (f *fakeRun) SubscribeProgress(string) (<-chan batch.Progress, error) {
	return f.progress, nil
}

func (f *fakeRun) CancelBatch(runID string) error {
	f.cancelled = append(f.cancelled, runID)
	f.summary.Cancelled = true
	close(f.progress)
	return nil
}

func (f *fakeRun) WaitForBatch(ctx context.Context, _ string) (batch.Summary, error) {
	if err := ctx.Err(); err != nil {
		return batch.Summary{}, err
	}
	return f.summary, nil
}

func TestFollowRun(t *testing.T) {
	step := batch.Progress{
		Phase:         batch.PhaseProcessing,
		Status:        batch.StatusProcessing,
		CandidateName: "Ada Lovelace",
		Course:        "Python Programming",
		Generated:     1,
		Total:         2,
	}

	tests := []struct {
		name          string
		interrupt     bool
		finished      bool
		wantCancelled []string
		wantOutput    string
	}{
		{
			name:       "run finishes",
			finished:   true,
			wantOutput: "  [ 50%] Ada Lovelace: Python Programming\n",
		},
		{
			name:          "interrupted mid run",
			interrupt:     true,
			wantCancelled: []string{"run-1"},
			wantOutput:    "Cancelling batch...\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRun{progress: make(chan batch.Progress, 1), summary: batch.Summary{Candidates: 2}}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.finished {
				f.progress <- step
				close(f.progress)
			}
			if tt.interrupt {
				cancel()
			}

			var out bytes.Buffer
			summary, err := followRun(ctx, &out, f, "run-1")
			if err != nil {
				t.Fatalf("followRun: %v", err)
			}

			if diff := cmp.Diff(tt.wantCancelled, f.cancelled); diff != "" {
				t.Errorf("cancelled runs mismatch (-want +got):\n%s", diff)
			}
			if summary.Cancelled != tt.interrupt {
				t.Errorf("summary.Cancelled = %v, want %v", summary.Cancelled, tt.interrupt)
			}
			if got := out.String(); got != tt.wantOutput {
				t.Errorf("output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

// ============================================================================
// Courses Command Tests
// ============================================================================

func TestCourses(t *testing.T) {
	out, err := execute(t, "courses")
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d courses:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[2], "python") || !strings.HasSuffix(lines[2], "Python Programming") {
		t.Errorf("line = %q", lines[2])
	}
}
