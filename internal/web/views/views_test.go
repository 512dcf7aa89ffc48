package views

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/course"
)

func TestLoginPage(t *testing.T) {
	var buf bytes.Buffer
	if err := LoginPage("Incorrect password").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{`action="/login"`, `type="password"`, "Incorrect password"} {
		if !strings.Contains(out, want) {
			t.Errorf("login page missing %q", want)
		}
	}
	if strings.Contains(out, "/logout") {
		t.Error("login page should not offer sign out")
	}
}

func TestDashboard(t *testing.T) {
	cand := batch.NewCandidate("candidate-0", "Ada <Lovelace>", "ada@x.com",
		[]course.Course{course.PythonProgramming, course.Cybersecurity})

	var buf bytes.Buffer
	err := Dashboard(DashboardParams{
		Candidates:  []batch.Candidate{cand},
		Stats:       batch.ComputeStats([]batch.Candidate{cand}),
		SignOut:     true,
		MaxFileSize: 10 << 20,
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Ada &lt;Lovelace&gt;",
		`href="/preview/candidate-0/python"`,
		`href="/preview/candidate-0/cybersecurity"`,
		`value="data-analysis"`,
		"10 MB",
		"0 / 2",
		"/logout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(out, "Ada <Lovelace>") {
		t.Error("candidate name was not escaped")
	}
}

func TestDashboard_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Dashboard(DashboardParams{}).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "No candidates yet") {
		t.Error("empty dashboard should say so")
	}
	if !strings.Contains(out, `id="run-button" type="button" disabled`) {
		t.Error("run button should be disabled for an empty batch")
	}
}

func TestCertificatePreview(t *testing.T) {
	cand := batch.NewCandidate("candidate-3", "Grace Hopper", "g@x.com", []course.Course{course.DataAnalysisAnalytics})
	params := PreviewParams{
		Candidate: cand,
		Course:    course.DataAnalysisAnalytics,
		Content:   certificate.DefaultTemplate().Content(cand.Name, course.DataAnalysisAnalytics),
	}

	if got := params.DownloadURL(); got != "/api/certificates/candidate-3/data-analysis" {
		t.Errorf("DownloadURL = %q", got)
	}

	var buf bytes.Buffer
	if err := CertificatePreview(params).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"GRACE HOPPER", "DATA ANALYSIS/ANALYTICS", "CERTIFICATE", params.DownloadURL()} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q", want)
		}
	}
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("File exceeds the maximum upload size", "Split the list", "FILE001").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "(FILE001)") || !strings.Contains(out, "Split the list") {
		t.Errorf("alert = %q", out)
	}
}

func TestDashboard_RunControls(t *testing.T) {
	cand := batch.NewCandidate("candidate-0", "Ada Lovelace", "ada@x.com", []course.Course{course.PythonProgramming})
	stats := batch.ComputeStats([]batch.Candidate{cand})

	tests := []struct {
		name    string
		params  DashboardParams
		want    []string
		notWant []string
	}{
		{
			name:    "idle batch",
			params:  DashboardParams{Candidates: []batch.Candidate{cand}, Stats: stats},
			want:    []string{`id="run-button" type="button">`, `<span id="run-status"></span>`},
			notWant: []string{`data-run="`},
		},
		{
			name: "running batch",
			params: DashboardParams{
				Candidates: []batch.Candidate{cand},
				Stats:      stats,
				Running:    true,
				RunID:      "run-7",
			},
			want: []string{
				`id="run-button" type="button" disabled data-run="run-7" data-running>`,
				`<span id="run-status">Generating certificates...</span>`,
			},
		},
		{
			name:    "no size limit",
			params:  DashboardParams{},
			want:    []string{".ods. Columns: Name, Email, Courses."},
			notWant: []string{"Maximum size"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Dashboard(tt.params).Render(context.Background(), &buf); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("dashboard missing %q", want)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(out, bad) {
					t.Errorf("dashboard should not contain %q", bad)
				}
			}
		})
	}
}

func TestComponents_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		c    templ.Component
	}{
		{"dashboard", Dashboard(DashboardParams{})},
		{"login", LoginPage("")},
		{"alert", ErrorAlert("message", "", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.c.Render(ctx, &buf)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Render() error = %v, want context.Canceled", err)
			}
			if buf.Len() != 0 {
				t.Errorf("wrote %d bytes after cancellation", buf.Len())
			}
		})
	}
}
