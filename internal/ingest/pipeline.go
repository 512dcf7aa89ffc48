package ingest

import (
	"log/slog"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/tabular"
)

// Result is the outcome of ingesting one decoded file.
type Result struct {
	Columns    ColumnMap         `json:"-"`
	Rows       []NormalizedRow   `json:"-"`
	Errors     []ValidationError `json:"errors"`
	Candidates []batch.Candidate `json:"candidates"`
	Dropped    []Drop            `json:"dropped"`
}

// RowCount returns the number of data rows read.
func (r Result) RowCount() int {
	return len(r.Rows)
}

// Pipeline runs column mapping, normalization, validation and building over
// a decoded grid. Drops and unrecognised course tokens are logged at debug.
type Pipeline struct {
	Logger *slog.Logger
}

// Run ingests grid. It never fails: decode problems are caught upstream and
// row problems are reported in Result.Errors.
func (p *Pipeline) Run(grid tabular.Grid) Result {
	return p.RunRows(grid.Headers, grid.RawRows())
}

// RunRows ingests already paired rows under the given header row.
func (p *Pipeline) RunRows(headers []string, raws []tabular.RawRow) Result {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cm := MapColumns(headers)
	rows := make([]NormalizedRow, len(raws))
	for i, raw := range raws {
		rows[i] = cm.Normalize(raw)
	}

	res := Result{Columns: cm, Rows: rows}
	res.Errors = append(ValidateColumns(cm), Validate(rows)...)

	b := &Builder{
		OnUnclassified: func(row int, token string) {
			logger.Debug("unrecognised course dropped", "row", row, "token", token)
		},
		OnDrop: func(d Drop) {
			res.Dropped = append(res.Dropped, d)
			logger.Debug("row dropped", "row", d.Row, "reason", string(d.Reason))
		},
	}
	res.Candidates = b.Build(rows)

	logger.Debug("ingest complete",
		"rows", len(rows),
		"candidates", len(res.Candidates),
		"dropped", len(res.Dropped),
		"errors", len(res.Errors),
	)
	return res
}
