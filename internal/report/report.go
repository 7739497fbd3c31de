// Package report renders analysis results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format selects how a result is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table or json)", s)
	}
}

// Write renders result to w in the given format.
func Write(w io.Writer, result *profile.AnalysisResult, format Format) error {
	if format == FormatJSON {
		return JSON(w, result)
	}
	return Table(w, result)
}

// JSON writes the result as indented JSON, the same shape the HTTP API serves.
func JSON(w io.Writer, result *profile.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// Table writes a column summary followed by one top-values table per column.
// Duplicate header names share a summary, so each name is printed once.
func Table(w io.Writer, result *profile.AnalysisResult) error {
	if _, err := fmt.Fprintf(w, "Rows: %d  Columns: %d\n\n", result.TotalRows, result.ColumnCount()); err != nil {
		return err
	}
	if result.ColumnCount() == 0 {
		_, err := io.WriteString(w, "No columns.\n")
		return err
	}

	names := uniqueHeaders(result.FileHeaders)

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.AppendHeader(table.Row{"Column", "Type", "Count", "Min", "Max", "Average", "Distinct shown"})
	summary.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for _, name := range names {
		stat := result.ColumnData[name]
		row := table.Row{name, string(stat.Type), "", "", "", "", topLabel(stat)}
		if stat.NumericStats != nil {
			row[2] = stat.Count
			row[3] = formatFloat(stat.Min)
			row[4] = formatFloat(stat.Max)
			row[5] = formatFloat(stat.Average)
		}
		summary.AppendRow(row)
	}
	summary.Render()

	for _, name := range names {
		top := result.ColumnData[name].Top()
		if len(top) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", name); err != nil {
			return err
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"#", "Value", "Count"})
		for i, vc := range top {
			tw.AppendRow(table.Row{i + 1, displayValue(vc.Value), vc.Count})
		}
		tw.Render()
	}
	return nil
}

func uniqueHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func topLabel(stat profile.ColumnStat) string {
	if stat.TopValues == nil {
		return "-"
	}
	return strconv.Itoa(len(stat.Top()))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 10, 64)
}

func displayValue(v string) string {
	if v == "" {
		return "(empty)"
	}
	return v
}
