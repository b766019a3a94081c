package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is one exported table. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	// Notes follow the table, one line each.
	Notes []string
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}

// CSVExporter writes a Dataset as comma separated values.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) ContentType() string { return "text/csv" }

func (e *CSVExporter) Extension() string { return "csv" }

// Render writes the header row, one record per row, then each note as a
// "Note" record padded to the header width after an empty separator record.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	records := make([][]string, 0, len(data.Rows)+len(data.Notes)+2)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, data.record(row))
	}
	if len(data.Notes) > 0 {
		records = append(records, make([]string, len(data.Headers)))
		for _, note := range data.Notes {
			line := make([]string, len(data.Headers))
			line[0] = "Note"
			if len(line) > 1 {
				line[1] = note
			} else {
				line[0] = "Note: " + note
			}
			records = append(records, line)
		}
	}

	buf := &bytes.Buffer{}
	if err := csv.NewWriter(buf).WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
