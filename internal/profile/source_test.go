package profile

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func collect(src RowSource) []Event {
	var events []Event
	for {
		ev := src.Next()
		events = append(events, ev)
		if ev.Kind == EventDone || ev.Kind == EventFailed {
			return events
		}
	}
}

func TestCSVSource_Events(t *testing.T) {
	input := "a,b\n1,x\n2\n3,y,extra\n"
	events := collect(NewCSVSource(strings.NewReader(input), int64(len(input)), DefaultCSVOptions()))

	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}
	if events[0].Kind != EventHeader || !reflect.DeepEqual(events[0].Header, []string{"a", "b"}) {
		t.Errorf("header event = %+v", events[0])
	}

	wantRows := []map[string]string{
		{"a": "1", "b": "x"},
		{"a": "2"},
		{"a": "3", "b": "y"},
	}
	for i, want := range wantRows {
		ev := events[i+1]
		if ev.Kind != EventRow {
			t.Fatalf("event %d kind = %s, want row", i+1, ev.Kind)
		}
		if !reflect.DeepEqual(ev.Row, want) {
			t.Errorf("row %d = %v, want %v", i, ev.Row, want)
		}
	}
	if events[4].Kind != EventDone {
		t.Errorf("last event = %s, want done", events[4].Kind)
	}
}

func TestCSVSource_EmptyInput(t *testing.T) {
	result, err := Analyze(NewCSVSource(strings.NewReader(""), 0, DefaultCSVOptions()), Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.TotalRows != 0 || len(result.FileHeaders) != 0 || len(result.ColumnData) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestCSVSource_BOMAndDelimiter(t *testing.T) {
	input := "\xEF\xBB\xBFname;qty\nfoo;3\n"
	opts := DefaultCSVOptions()
	opts.Comma = ';'

	result, err := Analyze(NewCSVSource(strings.NewReader(input), 0, opts), Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(result.FileHeaders, []string{"name", "qty"}) {
		t.Errorf("FileHeaders = %q", result.FileHeaders)
	}
	if result.ColumnData["qty"].Type != TypeNumeric {
		t.Errorf("qty.Type = %s, want numeric", result.ColumnData["qty"].Type)
	}
}

func TestCSVSource_ParseError(t *testing.T) {
	input := "a,b\n1,\"unterminated\n"
	opts := DefaultCSVOptions()
	opts.LazyQuotes = false

	result, err := Analyze(NewCSVSource(strings.NewReader(input), 0, opts), Options{})
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	var parseErr *SourceParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want SourceParseError", err)
	}
	if parseErr.Line == 0 {
		t.Error("Line should be set")
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestCSVSource_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	src := NewCSVSource(&failingReader{data: []byte("a\n1\n"), err: boom}, 0, DefaultCSVOptions())

	_, err := Analyze(src, Options{})
	var readErr *SourceReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("err = %v, want SourceReadError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err does not wrap cause: %v", err)
	}

	// Terminal event is sticky.
	if ev := src.Next(); ev.Kind != EventFailed {
		t.Errorf("Next after failure = %s, want failed", ev.Kind)
	}
}

func TestCSVSource_CountsBytes(t *testing.T) {
	input := "a\n1\n2\n"
	src := NewCSVSource(strings.NewReader(input), int64(len(input)), DefaultCSVOptions())
	collect(src)

	if got := src.Input().BytesRead(); got != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", got, len(input))
	}
	if got := src.Input().Progress(); got != 100 {
		t.Errorf("Progress = %d, want 100", got)
	}
}

func TestSliceSource_TerminalSticky(t *testing.T) {
	src := NewSliceSource([]string{"a"})
	collect(src)
	if ev := src.Next(); ev.Kind != EventDone {
		t.Errorf("Next after done = %s", ev.Kind)
	}
}
