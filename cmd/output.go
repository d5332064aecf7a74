package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	formatJSON  = "json"
	formatTable = "table"
)

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatTable:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want %s or %s)", format, formatJSON, formatTable)
	}
}

// recordRows flattens records into plain field maps.
func recordRows(records []scrape.PropertyRecord) []map[string]string {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		row := make(map[string]string)
		for f, v := range r.Fields() {
			row[string(f)] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// emit writes rows to path, or to stdout when path is empty.
func emit(stdout io.Writer, path, format string, rows []map[string]string) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return writeRows(w, format, rows)
}

func writeRows(w io.Writer, format string, rows []map[string]string) error {
	switch format {
	case formatTable:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		header := table.Row{"#"}
		for _, f := range scrape.AllFields {
			header = append(header, string(f))
		}
		t.AppendHeader(header)
		for i, row := range rows {
			line := table.Row{i + 1}
			for _, f := range scrape.AllFields {
				line = append(line, row[string(f)])
			}
			t.AppendRow(line)
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	default:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode records: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}
