package tabular

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

func decodeXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Format: FormatXLSX, Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// decodeXLS reads the first worksheet of a BIFF workbook. The xls reader
// panics on some malformed inputs, so panics are converted to errors.
func decodeXLS(data []byte) (records [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("malformed workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, &DecodeError{Format: FormatXLS, Reason: "workbook has no sheets"}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &DecodeError{Format: FormatXLS, Reason: "workbook has no sheets"}
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		// ROW records are optional, so LastCol is unreliable and every
		// column a BIFF sheet can hold is read instead.
		cells := make([]string, xlsMaxColumns)
		last := 0
		for c := range cells {
			cells[c] = row.Col(c)
			if cells[c] != "" {
				last = c + 1
			}
		}
		records = append(records, cells[:last])
	}
	return records, nil
}

// xlsMaxColumns is the BIFF8 column limit.
const xlsMaxColumns = 256

// xlsRow returns nil for row indexes that hold no cells. The reader
// dereferences the missing row itself, so the panic is absorbed here.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// ODS content.xml structure. Element names are matched by local name, so the
// OpenDocument namespaces do not need to be spelled out.
type odsContent struct {
	Tables []odsTable `xml:"body>spreadsheet>table"`
}

type odsTable struct {
	Name       string   `xml:"name,attr"`
	HeaderRows []odsRow `xml:"table-header-rows>table-row"`
	Rows       []odsRow `xml:"table-row"`
}

type odsRow struct {
	Repeat int       `xml:"number-rows-repeated,attr"`
	Cells  []odsCell `xml:"table-cell"`
}

type odsCell struct {
	Repeat int       `xml:"number-columns-repeated,attr"`
	Value  string    `xml:"value,attr"`
	Paras  []odsPara `xml:"p"`
}

type odsPara struct {
	Text  string   `xml:",chardata"`
	Spans []string `xml:"span"`
}

// Limits on an expanded ODS sheet. Repeat attributes let a few bytes of XML
// describe millions of rows, so every expansion is checked against them.
const (
	// maxRepeat bounds repeated empty rows and cells. Spreadsheet tools pad
	// the used range with one huge repeated empty row or cell.
	maxRepeat = 1024

	maxODSRows    = 100_000
	maxODSColumns = 16_384
	maxODSCells   = 2_000_000

	// maxODSContent caps the uncompressed size of content.xml.
	maxODSContent = 64 << 20
)

var errSheetTooLarge = &DecodeError{Format: FormatODS, Reason: "sheet too large"}

const odsMimeType = "application/vnd.oasis.opendocument.spreadsheet"

func decodeODS(data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	var content *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "mimetype":
			mime, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			if got := strings.TrimSpace(string(mime)); got != odsMimeType {
				return nil, &DecodeError{Format: FormatODS, Reason: fmt.Sprintf("unexpected package type %q", got)}
			}
		case "content.xml":
			content = f
		}
	}
	if content == nil {
		return nil, &DecodeError{Format: FormatODS, Reason: "package has no content.xml"}
	}

	if content.UncompressedSize64 > maxODSContent {
		return nil, errSheetTooLarge
	}
	raw, err := readZipFile(content)
	if err != nil {
		return nil, err
	}
	if len(raw) > maxODSContent {
		return nil, errSheetTooLarge
	}

	var doc odsContent
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse content.xml: %w", err)
	}
	if len(doc.Tables) == 0 {
		return nil, &DecodeError{Format: FormatODS, Reason: "document has no tables"}
	}

	table := doc.Tables[0]
	rows := append(append([]odsRow{}, table.HeaderRows...), table.Rows...)

	var (
		records [][]string
		cells   int
	)
	for _, row := range rows {
		rowCells, err := expandODSRow(row)
		if err != nil {
			return nil, err
		}
		empty := len(rowCells) == 0

		n := repeatCount(row.Repeat, empty)
		if len(records)+n > maxODSRows {
			if !empty {
				return nil, errSheetTooLarge
			}
			n = maxODSRows - len(records)
		}
		if cells+n*len(rowCells) > maxODSCells {
			return nil, errSheetTooLarge
		}
		cells += n * len(rowCells)

		for ; n > 0; n-- {
			records = append(records, append([]string(nil), rowCells...))
		}
	}
	return records, nil
}

func expandODSRow(row odsRow) ([]string, error) {
	var cells []string
	for _, c := range row.Cells {
		text := c.text()
		n := repeatCount(c.Repeat, text == "")
		if len(cells)+n > maxODSColumns {
			if text != "" {
				return nil, errSheetTooLarge
			}
			n = maxODSColumns - len(cells)
		}
		for ; n > 0; n-- {
			cells = append(cells, text)
		}
	}
	// Trailing padding cells carry no data.
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells, nil
}

func (c odsCell) text() string {
	if len(c.Paras) == 0 {
		return c.Value
	}
	parts := make([]string, len(c.Paras))
	for i, p := range c.Paras {
		parts[i] = p.Text + strings.Join(p.Spans, "")
	}
	return strings.Join(parts, "\n")
}

// repeatCount returns how many copies of a row or cell to emit. Empty
// repetitions are capped; they only matter as positional padding.
func repeatCount(repeat int, empty bool) int {
	if repeat <= 1 {
		return 1
	}
	if empty && repeat > maxRepeat {
		return maxRepeat
	}
	return repeat
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	// One byte past the cap is enough to tell an oversized entry apart.
	data, err := io.ReadAll(io.LimitReader(rc, maxODSContent+1))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}
