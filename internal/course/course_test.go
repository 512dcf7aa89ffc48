package course

import (
	"encoding/json"
	"testing"
)

// ============================================================================
// Classify Tests
// ============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		token  string
		want   Course
		wantOK bool
	}{
		{"Python Programming", PythonProgramming, true},
		{"  PYTHON  ", PythonProgramming, true},
		{"intro to python", PythonProgramming, true},
		{"Data Analysis/Analytics", DataAnalysisAnalytics, true},
		{"data analytics bootcamp", DataAnalysisAnalytics, true},
		{"Big Data Analysis", DataAnalysisAnalytics, true},
		{"MS Office for Administrators", MSOfficeForAdministrators, true},
		{"Microsoft Excel", MSOfficeForAdministrators, true},
		{"office skills", MSOfficeForAdministrators, true},
		{"Cybersecurity", Cybersecurity, true},
		{"cyber security basics", Cybersecurity, true},
		{"python for data analysis", PythonProgramming, true},
		{"data entry", 0, false},
		{"analytics", 0, false},
		{"Basket Weaving", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := Classify(tt.token)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.token, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	inputs := []string{"python", "MS office", "data analysis", "cyber", "Basket Weaving", " spaced "}
	for _, in := range inputs {
		once := Resolve(in)
		twice := Resolve(once)
		if once != twice {
			t.Errorf("Resolve not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestResolve_Unmapped(t *testing.T) {
	if got := Resolve("  Basket Weaving "); got != "Basket Weaving" {
		t.Errorf("Resolve = %q, want trimmed original", got)
	}
}

func TestCanonicalNamesClassifyToThemselves(t *testing.T) {
	for _, c := range All() {
		got, ok := Classify(c.String())
		if !ok || got != c {
			t.Errorf("Classify(%q) = %v, %v; want %v", c.String(), got, ok, c)
		}
	}
}

// ============================================================================
// Catalog Tests
// ============================================================================

func TestCatalogComplete(t *testing.T) {
	if err := catalogComplete(); err != nil {
		t.Fatal(err)
	}
	if len(All()) != numCourses {
		t.Fatalf("All() returned %d courses, want %d", len(All()), numCourses)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[Course]string{
		PythonProgramming:         "INTRODUCTION TO PYTHON PROGRAMMING",
		DataAnalysisAnalytics:     "DATA ANALYSIS/ANALYTICS",
		MSOfficeForAdministrators: "MS OFFICE FOR ADMINISTRATORS",
		Cybersecurity:             "CYBERSECURITY",
	}
	for c, want := range tests {
		if got := c.DisplayName(); got != want {
			t.Errorf("%v.DisplayName() = %q, want %q", c, got, want)
		}
	}
}

func TestParseAndSlugRoundTrip(t *testing.T) {
	for _, c := range All() {
		if got, ok := Parse(c.String()); !ok || got != c {
			t.Errorf("Parse(%q) = %v, %v", c.String(), got, ok)
		}
		if got, ok := ParseSlug(c.Slug()); !ok || got != c {
			t.Errorf("ParseSlug(%q) = %v, %v", c.Slug(), got, ok)
		}
	}
	if _, ok := Parse("python"); ok {
		t.Error("Parse should only accept canonical names")
	}
}

func TestCourse_JSON(t *testing.T) {
	data, err := json.Marshal([]Course{PythonProgramming, Cybersecurity})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["Python Programming","Cybersecurity"]` {
		t.Errorf("Marshal = %s", data)
	}

	var back []Course
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back) != 2 || back[0] != PythonProgramming || back[1] != Cybersecurity {
		t.Errorf("Unmarshal = %v", back)
	}

	if _, err := json.Marshal(Course(0)); err == nil {
		t.Error("expected error marshalling zero course")
	}
}
