// Package output renders cleanup results, connectivity reports, and
// model listings in text, JSON, and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mwkelly/redraft/internal/claude"
	"github.com/mwkelly/redraft/internal/cleanup"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResult outputs one cleanup result. Text and table modes print
// the cleaned text, then the commentary after a separator when present;
// JSON mode emits the full record.
func (wr *Writer) WriteResult(r *cleanup.Result) error {
	if wr.format == FormatJSON {
		return wr.WriteJSON(r)
	}
	if _, err := fmt.Fprintln(wr.w, r.Cleaned); err != nil {
		return err
	}
	if r.Commentary != "" {
		if _, err := fmt.Fprintf(wr.w, "\n---\n\n%s\n", r.Commentary); err != nil {
			return err
		}
	}
	return nil
}

// WriteTestResult outputs a connectivity probe report.
func (wr *Writer) WriteTestResult(res *claude.TestResult) error {
	if wr.format == FormatJSON {
		return wr.WriteJSON(res)
	}
	if res.Success {
		_, err := fmt.Fprintf(wr.w, "connection ok: %s answered in %dms (%d in / %d out tokens)\n",
			res.Model, res.LatencyMs, res.InputTokens, res.OutputTokens)
		return err
	}
	_, err := fmt.Fprintf(wr.w, "connection failed: %s\n", res.Message)
	return err
}

// WriteModels outputs the selectable model list. Table mode renders id,
// display name, and creation date columns; text mode prints one model
// per line; JSON mode emits the raw records.
func (wr *Writer) WriteModels(models []claude.ModelInfo) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(models)
	case FormatTable:
		return wr.writeModelTable(models)
	default:
		for _, m := range models {
			if m.DisplayName != "" && m.DisplayName != m.ID {
				if _, err := fmt.Fprintf(wr.w, "%s\t%s\n", m.ID, m.DisplayName); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintln(wr.w, m.ID); err != nil {
				return err
			}
		}
		return nil
	}
}

func (wr *Writer) writeModelTable(models []claude.ModelInfo) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "NAME", "CREATED"})
	for _, m := range models {
		created := ""
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.Format("2006-01-02")
		}
		tw.AppendRow(table.Row{m.ID, m.DisplayName, created})
	}
	_, err := fmt.Fprintln(wr.w, tw.Render())
	return err
}
