package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by results that can render as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case "json":
		return &printer{w: w, json: true}, nil
	case "table", "":
		return &printer{w: w}, nil
	}
	return nil, fmt.Errorf("invalid output format %q (want table or json)", format)
}

// print writes v as indented JSON or data as a table.
func (p *printer) print(v any, data TableRenderer) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	table := tablewriter.NewWriter(p.w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// tableData is an ad-hoc TableRenderer.
type tableData struct {
	headers []string
	rows    [][]string
}

func newTableData(headers ...string) *tableData {
	return &tableData{headers: headers}
}

func (t *tableData) addRow(row ...string) { t.rows = append(t.rows, row) }

func (t *tableData) Headers() []string { return t.headers }

func (t *tableData) Rows() [][]string { return t.rows }

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func formatSize(n int64) string {
	return strconv.FormatInt(n, 10)
}
