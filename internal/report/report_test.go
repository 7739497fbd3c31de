package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvstats/internal/profile"
)

func sampleResult(t *testing.T) *profile.AnalysisResult {
	t.Helper()
	src := profile.NewSliceSource(
		[]string{"city", "amount"},
		[]string{"Oslo", "10"},
		[]string{"Bergen", "2.5"},
		[]string{"", "6.25"},
	)
	result, err := profile.Analyze(src, profile.Options{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return result
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, sampleResult(t)); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Rows: 3  Columns: 2", "city", "categorical", "amount", "numeric", "Oslo", "(empty)", "6.25"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestTable_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	result := &profile.AnalysisResult{FileHeaders: []string{}, ColumnData: map[string]profile.ColumnStat{}}
	if err := Table(&buf, result); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No columns.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(t), FormatJSON); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["totalRows"] != float64(3) {
		t.Errorf("totalRows = %v, want 3", decoded["totalRows"])
	}
}

func TestUniqueHeaders(t *testing.T) {
	got := uniqueHeaders([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("uniqueHeaders() = %v, want %v", got, want)
	}
}
