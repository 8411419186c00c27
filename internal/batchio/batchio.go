// Package batchio reads batches of lead or ticket records from JSON, CSV
// and XLSX files. Column and key names are Salesforce field names; unknown
// columns are kept as extra fields.
package batchio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/workflow-cli/internal/model"
)

// Format is a batch file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("batchio: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadFile reads all records of kind from path.
func ReadFile(path string, kind model.WorkflowKind) ([]model.Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(path, kind, "")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batchio: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	if format == FormatCSV {
		return ReadCSV(f, kind)
	}
	return ReadJSON(f, kind)
}

// ReadJSON accepts an array of objects, a single object, or an object with
// a "records" array.
func ReadJSON(r io.Reader, kind model.WorkflowKind) ([]model.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "batchio: read json")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows []map[string]any
	if data[0] == '[' {
		if err := dec.Decode(&rows); err != nil {
			return nil, eris.Wrap(err, "batchio: parse json array")
		}
	} else {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, eris.Wrap(err, "batchio: parse json object")
		}
		list, ok := obj["records"].([]any)
		if !ok {
			rows = []map[string]any{obj}
		}
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, eris.Errorf("batchio: records[%d] is not an object", i)
			}
			rows = append(rows, m)
		}
	}
	return toRecords(rows, kind), nil
}

// ReadCSV reads a CSV file whose first row is the header.
func ReadCSV(r io.Reader, kind model.WorkflowKind) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batchio: read csv")
	}
	return fromTable(rows, kind), nil
}

// ReadXLSX reads a worksheet whose first row is the header. An empty sheet
// name selects the first sheet.
func ReadXLSX(path string, kind model.WorkflowKind, sheetName string) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batchio: open xlsx %s", path)
	}
	var sheet *xlsx.Sheet
	switch {
	case sheetName != "":
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("batchio: sheet %q not found", sheetName)
		}
		sheet = s
	case len(f.Sheets) == 0:
		return nil, eris.New("batchio: workbook has no sheets")
	default:
		sheet = f.Sheets[0]
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return fromTable(rows, kind), nil
}

// fromTable maps rows onto the header. Blank rows are skipped and empty
// cells are left out so they read as missing.
func fromTable(rows [][]string, kind model.WorkflowKind) []model.Record {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var maps []map[string]any
	for _, row := range rows[1:] {
		m := make(map[string]any, len(header))
		for i, v := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				m[header[i]] = v
			}
		}
		if len(m) > 0 {
			maps = append(maps, m)
		}
	}
	return toRecords(maps, kind)
}

func toRecords(rows []map[string]any, kind model.WorkflowKind) []model.Record {
	out := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.RecordFromFields(kind, r))
	}
	return out
}
