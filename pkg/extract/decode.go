// pkg/extract/decode.go
package extract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// DecodeCSV reads delimited tabular text with a header row into a batch.
// Every value stays a raw string; typing is the cleaner's job.
func DecodeCSV(r io.Reader) (*model.Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	batch := model.NewBatch(header, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(model.Record, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		batch.Rows = append(batch.Rows, row)
	}

	return batch, nil
}

// DecodeJSONColumns reads a column-oriented JSON document, the shape of the
// date-details export: {"column": {"0": v0, "1": v1, ...}, ...}. Row keys
// are positional indices; rows are reassembled in index order.
func DecodeJSONColumns(r io.Reader) (*model.Batch, error) {
	var doc map[string]map[string]interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON document: %w", err)
	}

	columns := make([]string, 0, len(doc))
	for col := range doc {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	rowKeys := map[string]bool{}
	for _, cells := range doc {
		for key := range cells {
			rowKeys[key] = true
		}
	}

	keys := make([]string, 0, len(rowKeys))
	for key := range rowKeys {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		// Numeric ordering for positional indices, lexical fallback.
		return len(keys[i]) < len(keys[j]) || (len(keys[i]) == len(keys[j]) && keys[i] < keys[j])
	})

	batch := model.NewBatch(columns, len(keys))
	for _, key := range keys {
		row := make(model.Record, len(columns))
		for _, col := range columns {
			row[col] = doc[col][key]
		}
		batch.Rows = append(batch.Rows, row)
	}

	return batch, nil
}

// DecodeJSONRows reads a row-oriented JSON array of objects into a batch.
func DecodeJSONRows(r io.Reader) (*model.Batch, error) {
	var rows []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode JSON rows: %w", err)
	}

	colSet := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			colSet[col] = true
		}
	}
	columns := make([]string, 0, len(colSet))
	for col := range colSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	batch := model.NewBatch(columns, len(rows))
	for _, row := range rows {
		batch.Rows = append(batch.Rows, model.Record(row))
	}
	return batch, nil
}
