package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{",", ',', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"|", '|', false},
		{"", 0, true},
		{"ab", 0, true},
		{`"`, 0, true},
	}
	for _, tt := range tests {
		got, err := parseDelimiter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDelimiter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDelimiter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, []byte("x\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, size, name, err := openInput(path)
	if err != nil {
		t.Fatalf("openInput() error = %v", err)
	}
	f.Close()
	if size != 4 || name != path {
		t.Errorf("openInput() = %d, %q", size, name)
	}

	if _, _, _, err := openInput(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, _, _, err := openInput(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}

	_, size, name, err = openInput("-")
	if err != nil || size != -1 || name != "stdin" {
		t.Errorf("openInput(-) = %d, %q, %v", size, name, err)
	}
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("id;name\n1;ann\n2;bob\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"analyze", "--format", "json", "--delimiter", ";", "--no-progress", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		formatFlag, delimiterFlag, noProgressFlag = "table", ",", false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result struct {
		TotalRows   int      `json:"totalRows"`
		FileHeaders []string `json:"fileHeaders"`
		ColumnData  map[string]struct {
			Type string `json:"type"`
		} `json:"columnData"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if result.TotalRows != 2 || strings.Join(result.FileHeaders, ",") != "id,name" {
		t.Errorf("result = %+v", result)
	}
	if result.ColumnData["id"].Type != "numeric" || result.ColumnData["name"].Type != "categorical" {
		t.Errorf("column types = %+v", result.ColumnData)
	}
}

func TestAnalyzeCommand_BadFormat(t *testing.T) {
	rootCmd.SetArgs([]string{"analyze", "--format", "xml", "x.csv"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		formatFlag = "table"
	})

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("Execute() error = %v, want unknown format", err)
	}
}
