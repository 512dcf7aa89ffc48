package ingest

// validation.go reports row problems to the user. Validation is exhaustive:
// every row is checked and every problem is returned, in row order.
//
// Row numbers match the source file as a spreadsheet shows it: the header
// is row 1, so the first data row is row 2. File-level problems use Row 0.

import (
	"fmt"
	"strings"
)

// Validation messages.
const (
	MsgFileEmpty      = "file is empty"
	MsgMissingName    = "Missing candidate name"
	MsgInvalidEmail   = "Invalid email address"
	MsgMissingCourses = "Missing course information"
)

// headerRow is the row number of the header line.
const headerRow = 1

// ValidationError is one problem found in the input.
type ValidationError struct {
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

// Validate checks every row. An empty input yields a single MsgFileEmpty
// error.
func Validate(rows []NormalizedRow) []ValidationError {
	if len(rows) == 0 {
		return []ValidationError{{Message: MsgFileEmpty}}
	}

	var errs []ValidationError
	for i, r := range rows {
		line := i + headerRow + 1
		if r.Name == "" {
			errs = append(errs, ValidationError{Row: line, Message: MsgMissingName})
		}
		if !strings.Contains(r.Email, "@") {
			errs = append(errs, ValidationError{Row: line, Message: MsgInvalidEmail})
		}
		if r.Courses == "" {
			errs = append(errs, ValidationError{Row: line, Message: MsgMissingCourses})
		}
	}
	return errs
}

// ValidateColumns reports canonical fields that no header maps to.
func ValidateColumns(cm ColumnMap) []ValidationError {
	missing := cm.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = f.String()
	}
	return []ValidationError{{
		Row:     headerRow,
		Message: "Missing required columns: " + strings.Join(names, ", "),
	}}
}

// SummarizeErrors renders at most limit errors, followed by a count of the
// rest. A limit of zero or less renders every error.
func SummarizeErrors(errs []ValidationError, limit int) []string {
	shown := errs
	if limit > 0 && len(errs) > limit {
		shown = errs[:limit]
	}

	out := make([]string, 0, len(shown)+1)
	for _, e := range shown {
		out = append(out, e.Error())
	}
	if rest := len(errs) - len(shown); rest > 0 {
		noun := "errors"
		if rest == 1 {
			noun = "error"
		}
		out = append(out, fmt.Sprintf("...and %d more %s", rest, noun))
	}
	return out
}
