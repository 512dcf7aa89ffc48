// Package tabular decodes uploaded spreadsheet files into a uniform grid of
// text cells. The first non-blank row of a file is its header row.
//
// Supported encodings:
//
//   - .csv  delimited text (UTF-8, UTF-8/UTF-16 with BOM, Windows-1252 fallback)
//   - .xlsx open packaging spreadsheet, first sheet
//   - .xls  legacy binary spreadsheet, first sheet
//   - .ods  OpenDocument spreadsheet, first table
//
// Every failure is reported as a *DecodeError naming the format, so callers can
// surface it verbatim without partially accepting the file.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatODS  Format = "ods"
)

// Formats lists the supported formats in the order they are advertised to users.
var Formats = []Format{FormatCSV, FormatXLSX, FormatXLS, FormatODS}

// ErrUnsupportedFormat is wrapped by the DecodeError DetectFormat returns for
// unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// SupportedExtensions returns ".csv, .xlsx, .xls, .ods".
func SupportedExtensions() string {
	exts := make([]string, len(Formats))
	for i, f := range Formats {
		exts[i] = f.Extension()
	}
	return strings.Join(exts, ", ")
}

// DetectFormat maps a file name to its format by extension (case-insensitive).
func DetectFormat(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	for _, f := range Formats {
		if ext == f.Extension() {
			return f, nil
		}
	}
	return "", &DecodeError{
		Format: Format(strings.TrimPrefix(ext, ".")),
		Reason: fmt.Sprintf("not a supported type (%s)", SupportedExtensions()),
		Err:    ErrUnsupportedFormat,
	}
}

// DecodeError reports that a file could not be decoded in its declared format.
type DecodeError struct {
	Format Format
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode file: " + e.Reason
	if e.Format != "" {
		msg = fmt.Sprintf("decode %s file: %s", e.Format, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MinRows is the minimum number of non-blank rows a file must contain:
// one header row and one data row.
const MinRows = 2

// Cell is one header/value pair of a decoded row.
type Cell struct {
	Header string
	Value  string
}

// RawRow is a decoded data row keyed by the source headers, in column order.
// Duplicate headers are kept as separate cells.
type RawRow []Cell

// Get returns the value of the last cell whose header equals header exactly.
func (r RawRow) Get(header string) (string, bool) {
	val, found := "", false
	for _, c := range r {
		if c.Header == header {
			val, found = c.Value, true
		}
	}
	return val, found
}

// Grid is a decoded file: a header row plus data rows of text cells.
type Grid struct {
	Format  Format
	Headers []string
	Rows    [][]string
}

// RawRows pairs every data row with the header row. Short rows are padded
// with empty values; cells beyond the last header are discarded.
func (g Grid) RawRows() []RawRow {
	out := make([]RawRow, len(g.Rows))
	for i, row := range g.Rows {
		raw := make(RawRow, len(g.Headers))
		for j, h := range g.Headers {
			raw[j].Header = h
			if j < len(row) {
				raw[j].Value = row[j]
			}
		}
		out[i] = raw
	}
	return out
}

// Decode parses data in the given format.
func Decode(format Format, data []byte) (Grid, error) {
	var (
		records [][]string
		err     error
	)

	switch format {
	case FormatCSV:
		records, err = decodeCSV(data)
	case FormatXLSX:
		records, err = decodeXLSX(data)
	case FormatXLS:
		records, err = decodeXLS(data)
	case FormatODS:
		records, err = decodeODS(data)
	default:
		return Grid{}, &DecodeError{Format: format, Reason: "unsupported format", Err: ErrUnsupportedFormat}
	}
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return Grid{}, de
		}
		return Grid{}, &DecodeError{Format: format, Reason: "file is corrupt or not a valid spreadsheet", Err: err}
	}

	return newGrid(format, records)
}

// DecodeFile detects the format from fileName and decodes data.
func DecodeFile(fileName string, data []byte) (Grid, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return Grid{}, err
	}
	return Decode(format, data)
}

func newGrid(format Format, records [][]string) (Grid, error) {
	kept := make([][]string, 0, len(records))
	for _, rec := range records {
		for i := range rec {
			rec[i] = cleanCell(rec[i])
		}
		if isEmptyRow(rec) {
			continue
		}
		kept = append(kept, rec)
	}

	if len(kept) < MinRows {
		return Grid{}, &DecodeError{
			Format: format,
			Reason: "file must contain a header row and at least one data row",
		}
	}

	return Grid{
		Format:  format,
		Headers: kept[0],
		Rows:    kept[1:],
	}, nil
}

// cleanCell trims whitespace and unwraps the ="value" form spreadsheet
// exports use to keep leading zeros.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
