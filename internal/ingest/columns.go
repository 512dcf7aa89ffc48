// Package ingest turns decoded spreadsheet rows into validated candidates.
//
// The pipeline runs in four stages:
//  1. Column mapping: variant headers ("Full Name", "E-mail", "Course") map to
//     the canonical fields Name, Email and Courses.
//  2. Normalization: each row is reduced to a NormalizedRow whose Courses
//     cell holds classified course names joined by ", ".
//  3. Validation: every row is checked and all problems are reported, keyed
//     by the row number a user sees in the source file.
//  4. Building: rows with a name, an email and at least one canonical course
//     become candidates; everything else is dropped without an error.
//
// Validation and building are independent gates. A row can produce an
// advisory error and still become a candidate, or pass validation and be
// dropped because none of its course tokens is recognised.
package ingest

import (
	"strings"

	"github.com/JonMunkholm/certbatch/internal/tabular"
)

// Field is a canonical column.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldCourses
)

// Fields lists the canonical columns in the order they are reported.
var Fields = []Field{FieldName, FieldEmail, FieldCourses}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldEmail:
		return "Email"
	case FieldCourses:
		return "Courses"
	}
	return "Unknown"
}

var (
	nameHeaders  = []string{"name", "full name", "candidate name"}
	emailHeaders = []string{"email", "email address", "e-mail"}
)

// classifyHeader maps one source header to a canonical field. Headers that
// match no rule are not mapped and their cells are ignored.
func classifyHeader(header string) (Field, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case strings.Contains(h, "course"):
		return FieldCourses, true
	case containsExact(nameHeaders, h):
		return FieldName, true
	case containsExact(emailHeaders, h):
		return FieldEmail, true
	}
	return 0, false
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ColumnMap records which source header feeds each canonical field.
type ColumnMap map[Field]string

// MapColumns builds the column map for a header row. When several headers
// map to the same field, the one furthest right wins.
func MapColumns(headers []string) ColumnMap {
	cm := make(ColumnMap, len(Fields))
	for _, h := range headers {
		if f, ok := classifyHeader(h); ok {
			cm[f] = h
		}
	}
	return cm
}

// Missing returns the canonical fields with no source column, in report order.
func (cm ColumnMap) Missing() []Field {
	var missing []Field
	for _, f := range Fields {
		if _, ok := cm[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// NormalizedRow is a row restricted to the canonical fields. Every field is
// trimmed and empty when the source had no such column.
type NormalizedRow struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Courses string `json:"courses"`
}

// Normalize builds the NormalizedRow for raw.
func (cm ColumnMap) Normalize(raw tabular.RawRow) NormalizedRow {
	return NormalizedRow{
		Name:    cm.value(raw, FieldName),
		Email:   cm.value(raw, FieldEmail),
		Courses: NormalizeCourses(cm.value(raw, FieldCourses)),
	}
}

func (cm ColumnMap) value(raw tabular.RawRow, f Field) string {
	header, ok := cm[f]
	if !ok {
		return ""
	}
	v, _ := raw.Get(header)
	return strings.TrimSpace(v)
}
