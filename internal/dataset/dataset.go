// Package dataset reads labelled CSV tables and joins truth against
// prediction rows on a shared identifier column.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"conveval/internal/common/errors"
)

// LabelTable is a CSV file keyed by an identifier column. Remaining columns
// are kept as raw strings.
type LabelTable struct {
	IDColumn string
	Columns  []string
	Rows     []map[string]string
}

// ReadCSV loads a label table from the given path. The header must contain
// the identifier column.
func ReadCSV(path, idColumn string) (*LabelTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDatasetReadFailedError(path, err)
	}
	defer f.Close()

	table, err := parseCSV(f, path, idColumn)
	if err != nil {
		if stdErr, ok := err.(*errors.StandardError); ok {
			return nil, stdErr
		}
		return nil, errors.NewDatasetReadFailedError(path, err)
	}
	return table, nil
}

func parseCSV(r io.Reader, path, idColumn string) (*LabelTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	idIdx := -1
	for i, col := range header {
		if col == idColumn {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, errors.NewDatasetColumnMissingError(idColumn, path)
	}

	table := &LabelTable{IDColumn: idColumn, Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Column reports whether the table carries the named column.
func (t *LabelTable) Column(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// JoinedRow pairs the truth and prediction cells for one identifier.
type JoinedRow struct {
	ID    string
	Truth map[string]string
	Pred  map[string]string
}

// JoinOnID inner-joins the two tables on their identifier columns. Truth
// rows without a matching prediction, and vice versa, are dropped. Row order
// follows the truth table; duplicate identifiers keep the first prediction.
func JoinOnID(truth, pred *LabelTable) ([]JoinedRow, error) {
	predByID := make(map[string]map[string]string, len(pred.Rows))
	for _, row := range pred.Rows {
		id := row[pred.IDColumn]
		if _, ok := predByID[id]; !ok {
			predByID[id] = row
		}
	}

	joined := make([]JoinedRow, 0, len(truth.Rows))
	for _, row := range truth.Rows {
		id := row[truth.IDColumn]
		predRow, ok := predByID[id]
		if !ok {
			continue
		}
		joined = append(joined, JoinedRow{ID: id, Truth: row, Pred: predRow})
	}

	if len(joined) == 0 {
		return nil, errors.NewDatasetEmptyJoinError(truth.IDColumn)
	}
	return joined, nil
}

// Pairs extracts one truth column and one prediction column from the joined
// rows, in order. Missing cells come through as empty strings.
func Pairs(rows []JoinedRow, truthCol, predCol string) (yTrue, yPred []string) {
	yTrue = make([]string, 0, len(rows))
	yPred = make([]string, 0, len(rows))
	for _, row := range rows {
		yTrue = append(yTrue, row.Truth[truthCol])
		yPred = append(yPred, row.Pred[predCol])
	}
	return yTrue, yPred
}
