package tablemd

import (
	"bytes"
	"encoding/csv"

	"github.com/bytedance/sonic"

	"github.com/docfold/pdfdistill/pkg/pdf"
)

// TableExport is the JSON document written alongside a table's markdown
// artifact.
type TableExport struct {
	Document  string     `json:"document"`
	Page      int        `json:"page"`
	Strategy  string     `json:"strategy"`
	Index     int        `json:"index"`
	HasHeader bool       `json:"has_header"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
}

// ExportJSON serializes the table with its provenance. Synthetic headers
// appear in Headers exactly as they do in the markdown rendering.
func (r *Renderer) ExportJSON(table pdf.Table, index int, docName string) ([]byte, error) {
	headers, body := r.headerAndBody(table)

	return sonic.MarshalIndent(TableExport{
		Document:  docName,
		Page:      table.Page,
		Strategy:  table.Strategy,
		Index:     index,
		HasHeader: table.HasHeader,
		Headers:   headers,
		Rows:      body,
	}, "", "  ")
}

// ExportCSV writes the header row followed by the data rows. CSV quoting
// stands in for the markdown pipe escaping.
func (r *Renderer) ExportCSV(table pdf.Table) ([]byte, error) {
	headers, body := r.headerAndBody(table)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range body {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
