package ingest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/course"
	"github.com/JonMunkholm/certbatch/internal/tabular"
)

func grid(headers []string, rows ...[]string) tabular.Grid {
	return tabular.Grid{Format: tabular.FormatCSV, Headers: headers, Rows: rows}
}

var stdHeaders = []string{"Name", "Email", "Courses"}

// ============================================================================
// Column Mapping Tests
// ============================================================================

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    ColumnMap
	}{
		{
			name:    "canonical headers",
			headers: []string{"Name", "Email", "Courses"},
			want:    ColumnMap{FieldName: "Name", FieldEmail: "Email", FieldCourses: "Courses"},
		},
		{
			name:    "variant headers",
			headers: []string{"Full Name", "E-mail", "Course"},
			want:    ColumnMap{FieldName: "Full Name", FieldEmail: "E-mail", FieldCourses: "Course"},
		},
		{
			name:    "case and whitespace",
			headers: []string{"  CANDIDATE NAME ", "Email Address", "Enrolled Courses"},
			want:    ColumnMap{FieldName: "  CANDIDATE NAME ", FieldEmail: "Email Address", FieldCourses: "Enrolled Courses"},
		},
		{
			name:    "unknown headers ignored",
			headers: []string{"Phone", "First Name", "Emails"},
			want:    ColumnMap{},
		},
		{
			name:    "last duplicate wins",
			headers: []string{"Course", "Name", "Courses"},
			want:    ColumnMap{FieldName: "Name", FieldCourses: "Courses"},
		},
		{
			name:    "course rule checked first",
			headers: []string{"Course Name"},
			want:    ColumnMap{FieldCourses: "Course Name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapColumns(tt.headers)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MapColumns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColumnMap_Missing(t *testing.T) {
	cm := MapColumns([]string{"Course", "Phone"})
	if diff := cmp.Diff([]Field{FieldName, FieldEmail}, cm.Missing()); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_AbsentColumnsAreEmpty(t *testing.T) {
	cm := MapColumns([]string{"Name"})
	got := cm.Normalize(tabular.RawRow{{Header: "Name", Value: "  Ada  "}})
	want := NormalizedRow{Name: "Ada"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCourses(t *testing.T) {
	tests := map[string]string{
		"":                           "",
		"python":                     "Python Programming",
		" cyber security , Excel ":   "Cybersecurity, Excel",
		"Data Analytics,,Microsoft":  "Data Analysis/Analytics, MS Office for Administrators",
		"Basket Weaving":             "Basket Weaving",
		"Python Programming, python": "Python Programming, Python Programming",
		" , ":                        ",",
		",,":                         ",,",
		"   ":                        "",
	}
	for in, want := range tests {
		if got := NormalizeCourses(in); got != want {
			t.Errorf("NormalizeCourses(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeCourses(want); again != want {
			t.Errorf("NormalizeCourses not idempotent on %q: got %q", want, again)
		}
	}
}

// ============================================================================
// Validation Tests
// ============================================================================

func TestValidate_RowNumbers(t *testing.T) {
	rows := []NormalizedRow{
		{Name: "Ada", Email: "ada@x.com", Courses: "Python Programming"},
		{Name: "", Email: "blank@x.com", Courses: "Cybersecurity"},
		{Name: "Alan", Email: "alan.x.com", Courses: "Cybersecurity"},
	}

	want := []ValidationError{
		{Row: 3, Message: MsgMissingName},
		{Row: 4, Message: MsgInvalidEmail},
	}
	if diff := cmp.Diff(want, Validate(rows)); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_AllProblemsOnOneRow(t *testing.T) {
	got := Validate([]NormalizedRow{{}})
	want := []ValidationError{
		{Row: 2, Message: MsgMissingName},
		{Row: 2, Message: MsgInvalidEmail},
		{Row: 2, Message: MsgMissingCourses},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Empty(t *testing.T) {
	got := Validate(nil)
	if len(got) != 1 || got[0].Message != MsgFileEmpty {
		t.Fatalf("Validate(nil) = %v, want single %q", got, MsgFileEmpty)
	}
	if got[0].Error() != MsgFileEmpty {
		t.Errorf("file-level error should carry no row prefix: %q", got[0].Error())
	}
}

func TestValidateColumns(t *testing.T) {
	got := ValidateColumns(MapColumns([]string{"Course"}))
	want := []ValidationError{{Row: 1, Message: "Missing required columns: Name, Email"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValidateColumns mismatch (-want +got):\n%s", diff)
	}
	if errs := ValidateColumns(MapColumns(stdHeaders)); errs != nil {
		t.Errorf("complete header row reported %v", errs)
	}
}

func TestSummarizeErrors(t *testing.T) {
	errs := []ValidationError{
		{Row: 2, Message: "a"},
		{Row: 3, Message: "b"},
		{Row: 4, Message: "c"},
		{Row: 5, Message: "d"},
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"Row 2: a", "Row 3: b", "...and 2 more errors"}},
		{limit: 3, want: []string{"Row 2: a", "Row 3: b", "Row 4: c", "...and 1 more error"}},
		{limit: 4, want: []string{"Row 2: a", "Row 3: b", "Row 4: c", "Row 5: d"}},
		{limit: 0, want: []string{"Row 2: a", "Row 3: b", "Row 4: c", "Row 5: d"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SummarizeErrors(errs, tt.limit)); diff != "" {
			t.Errorf("limit %d mismatch (-want +got):\n%s", tt.limit, diff)
		}
	}
}

// ============================================================================
// Builder Tests
// ============================================================================

func TestBuild_DeduplicatesCourses(t *testing.T) {
	rows := []NormalizedRow{{
		Name:    "Ada",
		Email:   "ada@x.com",
		Courses: NormalizeCourses("Python Programming, python, PYTHON"),
	}}

	got := (&Builder{}).Build(rows)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if diff := cmp.Diff([]course.Course{course.PythonProgramming}, got[0].Courses); diff != "" {
		t.Errorf("courses mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_PreservesFirstOccurrenceOrder(t *testing.T) {
	rows := []NormalizedRow{{
		Name:    "Ada",
		Email:   "ada@x.com",
		Courses: "cyber, Office, cybersecurity, data analysis",
	}}
	got := (&Builder{}).Build(rows)
	want := []course.Course{course.Cybersecurity, course.MSOfficeForAdministrators, course.DataAnalysisAnalytics}
	if diff := cmp.Diff(want, got[0].Courses); diff != "" {
		t.Errorf("courses mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SilentDrops(t *testing.T) {
	rows := []NormalizedRow{
		{Name: "Ada", Email: "ada@x.com", Courses: "Basket Weaving"},
		{Name: "", Email: "x@x.com", Courses: "Python"},
		{Name: "Alan", Email: "", Courses: "Python"},
		{Name: "Grace", Email: "grace@x.com", Courses: "Python, Basket Weaving"},
	}

	var drops []Drop
	var unclassified []string
	b := &Builder{
		OnDrop:         func(d Drop) { drops = append(drops, d) },
		OnUnclassified: func(_ int, tok string) { unclassified = append(unclassified, tok) },
	}
	got := b.Build(rows)

	if len(got) != 1 || got[0].Name != "Grace" {
		t.Fatalf("candidates = %+v, want only Grace", got)
	}
	if got[0].ID != "candidate-3" {
		t.Errorf("ID = %q, want candidate-3", got[0].ID)
	}

	wantDrops := []Drop{
		{Row: 2, Reason: DropNoCourses},
		{Row: 3, Reason: DropMissingName},
		{Row: 4, Reason: DropMissingEmail},
	}
	if diff := cmp.Diff(wantDrops, drops); diff != "" {
		t.Errorf("drops mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Basket Weaving", "Basket Weaving"}, unclassified); diff != "" {
		t.Errorf("unclassified mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_NewCandidatesArePending(t *testing.T) {
	got := (&Builder{}).Build([]NormalizedRow{{Name: "Ada", Email: "ada@x.com", Courses: "python"}})
	c := got[0]
	if c.Status != batch.StatusPending || c.CertificatesGenerated != 0 || len(c.ProcessedCourses) != 0 {
		t.Errorf("new candidate = %+v", c)
	}
}

// ============================================================================
// Pipeline Tests
// ============================================================================

func TestPipeline_HeaderTolerance(t *testing.T) {
	g := grid([]string{"Full Name", "E-mail", "Course"},
		[]string{"Ada Lovelace", "ada@x.com", "cyber security basics"},
	)

	res := (&Pipeline{}).Run(g)
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}

	want := []batch.Candidate{
		batch.NewCandidate("candidate-0", "Ada Lovelace", "ada@x.com", []course.Course{course.Cybersecurity}),
	}
	if diff := cmp.Diff(want, res.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_ValidationAndBuildAreIndependent(t *testing.T) {
	g := grid(stdHeaders,
		[]string{"Ada", "ada@x.com", "Python"},
		[]string{"", "blank@x.com", "Cybersecurity"},
		[]string{"Alan", "alan.x.com", "Cybersecurity"},
		[]string{"Grace", "grace@x.com", "Basket Weaving"},
	)

	res := (&Pipeline{}).Run(g)

	want := []ValidationError{
		{Row: 3, Message: MsgMissingName},
		{Row: 4, Message: MsgInvalidEmail},
	}
	if diff := cmp.Diff(want, res.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	// Alan has an invalid but non-blank email, so the builder keeps him.
	// Grace validates cleanly but has no recognised course.
	var names []string
	for _, c := range res.Candidates {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Ada", "Alan"}, names); diff != "" {
		t.Errorf("candidate names mismatch (-want +got):\n%s", diff)
	}
	if len(res.Dropped) != 2 {
		t.Errorf("dropped = %v, want 2 rows", res.Dropped)
	}
}

func TestPipeline_SeparatorOnlyCourses(t *testing.T) {
	tests := []struct {
		name    string
		courses string
		want    []ValidationError
	}{
		{"comma only", " , ", nil},
		{"repeated commas", ",,,", nil},
		{"whitespace only", "   ", []ValidationError{{Row: 2, Message: MsgMissingCourses}}},
		{"empty", "", []ValidationError{{Row: 2, Message: MsgMissingCourses}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := (&Pipeline{}).Run(grid(stdHeaders, []string{"Ada", "ada@x.com", tt.courses}))

			if diff := cmp.Diff(tt.want, res.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			// No token survives, so the builder drops the row either way.
			if len(res.Candidates) != 0 {
				t.Errorf("candidates = %+v, want none", res.Candidates)
			}
			if diff := cmp.Diff([]Drop{{Row: 2, Reason: DropNoCourses}}, res.Dropped); diff != "" {
				t.Errorf("dropped mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPipeline_MissingColumnsReported(t *testing.T) {
	g := grid([]string{"Name", "Course"}, []string{"Ada", "python"})
	res := (&Pipeline{}).Run(g)

	if len(res.Errors) == 0 || res.Errors[0].Row != 1 || !strings.Contains(res.Errors[0].Message, "Email") {
		t.Errorf("errors = %v, want missing Email column first", res.Errors)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("candidates = %v, want none", res.Candidates)
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	g := grid([]string{"Candidate Name", "Email Address", "Courses", "Notes"},
		[]string{"Ada", "ada@x.com", "Python, Data Analytics, python", "n/a"},
		[]string{"Alan", "alan@x.com", "MS Office, Cyber", ""},
		[]string{"", "", "", ""},
		[]string{"Grace", "grace@x.com", "Knitting", ""},
	)

	p := &Pipeline{}
	first := p.Run(g)
	second := p.Run(g)
	if diff := cmp.Diff(first.Candidates, second.Candidates); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}

	// Feeding normalized rows back in gives the same candidates.
	var again []tabular.RawRow
	for _, r := range first.Rows {
		again = append(again, tabular.RawRow{
			{Header: "Name", Value: r.Name},
			{Header: "Email", Value: r.Email},
			{Header: "Courses", Value: r.Courses},
		})
	}
	third := p.RunRows(stdHeaders, again)
	if diff := cmp.Diff(first.Candidates, third.Candidates); diff != "" {
		t.Errorf("re-normalized run differs (-first +third):\n%s", diff)
	}
}

func TestPipeline_CandidatesNeverExceedRows(t *testing.T) {
	inputs := []tabular.Grid{
		grid(stdHeaders, []string{"a", "a@x", "python"}),
		grid(stdHeaders, []string{"", "", ""}, []string{"b", "b@x", "knitting"}),
		grid([]string{"Phone"}, []string{"123"}, []string{"456"}),
		grid(stdHeaders,
			[]string{"a", "a@x", "python, cyber, office, data analysis"},
			[]string{"b", "b@x", "python"},
		),
	}

	for i, g := range inputs {
		res := (&Pipeline{}).Run(g)
		if len(res.Candidates) > len(g.Rows) {
			t.Errorf("input %d: %d candidates from %d rows", i, len(res.Candidates), len(g.Rows))
		}
		if len(res.Candidates)+len(res.Dropped) != len(g.Rows) {
			t.Errorf("input %d: candidates + dropped != rows", i)
		}
	}
}

func TestPipeline_DecodedCSV(t *testing.T) {
	data := []byte("Full Name,E-mail,Course\nAda Lovelace,ada@x.com,\"Python Programming, python, PYTHON\"\n")
	g, err := tabular.Decode(tabular.FormatCSV, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res := (&Pipeline{}).Run(g)
	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(res.Candidates))
	}
	if diff := cmp.Diff([]course.Course{course.PythonProgramming}, res.Candidates[0].Courses); diff != "" {
		t.Errorf("courses mismatch (-want +got):\n%s", diff)
	}
}
