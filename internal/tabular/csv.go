package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func decodeCSV(data []byte) ([][]string, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// toUTF8 strips a byte order mark and transcodes the payload to UTF-8.
// A BOM selects UTF-8 or UTF-16; without one, valid UTF-8 is kept as-is and
// anything else is read as Windows-1252, the usual encoding of CSV files
// saved by desktop spreadsheet tools.
func toUTF8(data []byte) ([]byte, error) {
	fallback := unicode.UTF8.NewDecoder()
	if !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, err
	}
	return out, nil
}
