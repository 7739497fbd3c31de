package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// EventKind identifies the kind of event a RowSource emits.
type EventKind int

const (
	EventHeader EventKind = iota
	EventRow
	EventDone
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventHeader:
		return "header"
	case EventRow:
		return "row"
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one step of a row stream.
//
// A header event carries Header, a row event carries Row (a header missing
// from the map is distinct from an empty string), and a failed event carries
// Err. A done event carries nothing.
type Event struct {
	Kind   EventKind
	Header []string
	Row    map[string]string
	Err    error
}

// RowSource produces the events of one dataset: exactly one header event,
// zero or more row events, then exactly one terminal event (done or failed).
// After the terminal event Next keeps returning it.
type RowSource interface {
	Next() Event
}

// SourceReadError reports an I/O failure while reading the input.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string { return "source read: " + e.Err.Error() }
func (e *SourceReadError) Unwrap() error { return e.Err }

// SourceParseError reports malformed record structure.
type SourceParseError struct {
	Line int
	Err  error
}

func (e *SourceParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("source parse: line %d: %v", e.Line, e.Err)
	}
	return "source parse: " + e.Err.Error()
}

func (e *SourceParseError) Unwrap() error { return e.Err }

// CSVOptions tunes CSV parsing.
type CSVOptions struct {
	Comma            rune // default ','
	LazyQuotes       bool
	TrimLeadingSpace bool
}

// DefaultCSVOptions matches the tolerant defaults used by the upload path.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Comma: ',', LazyQuotes: true}
}

// CSVSource reads a CSV stream whose first record is the header.
type CSVSource struct {
	input  *CountingReader
	reader *csv.Reader

	header   []string
	started  bool
	terminal *Event
}

// NewCSVSource wraps r (BOM skip, UTF-8 sanitize, byte counting) and parses
// it as CSV. size is the expected input size for progress, or 0.
func NewCSVSource(r io.Reader, size int64, opts CSVOptions) *CSVSource {
	input := WrapInput(r, size)

	cr := csv.NewReader(input)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.LazyQuotes = opts.LazyQuotes
	cr.TrimLeadingSpace = opts.TrimLeadingSpace
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	return &CSVSource{input: input, reader: cr}
}

// Input exposes the counting reader for progress reporting.
func (s *CSVSource) Input() *CountingReader { return s.input }

// Next implements RowSource.
func (s *CSVSource) Next() Event {
	if s.terminal != nil {
		return *s.terminal
	}

	record, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if !s.started {
				// Empty input still yields a (zero-column) header.
				s.started = true
				return Event{Kind: EventHeader, Header: []string{}}
			}
			return s.finish(Event{Kind: EventDone})
		}
		return s.finish(Event{Kind: EventFailed, Err: classifyCSVError(err)})
	}

	if !s.started {
		s.started = true
		s.header = make([]string, len(record))
		copy(s.header, record)
		return Event{Kind: EventHeader, Header: append([]string(nil), s.header...)}
	}

	row := make(map[string]string, len(s.header))
	for i, name := range s.header {
		if i >= len(record) {
			break
		}
		row[name] = record[i]
	}
	return Event{Kind: EventRow, Row: row}
}

func (s *CSVSource) finish(ev Event) Event {
	s.terminal = &ev
	return ev
}

func classifyCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &SourceParseError{Line: pe.Line, Err: pe.Err}
	}
	return &SourceReadError{Err: err}
}

// SliceSource replays in-memory records. The first record is the header. A
// non-nil Err is emitted as the failure event after the records.
type SliceSource struct {
	Records [][]string
	Err     error

	pos      int
	terminal *Event
}

// NewSliceSource returns a source over header followed by rows.
func NewSliceSource(header []string, rows ...[]string) *SliceSource {
	return &SliceSource{Records: append([][]string{header}, rows...)}
}

// Next implements RowSource.
func (s *SliceSource) Next() Event {
	if s.terminal != nil {
		return *s.terminal
	}

	if s.pos == 0 {
		s.pos++
		var header []string
		if len(s.Records) > 0 {
			header = append([]string{}, s.Records[0]...)
		} else {
			header = []string{}
		}
		return Event{Kind: EventHeader, Header: header}
	}

	if s.pos < len(s.Records) {
		record := s.Records[s.pos]
		s.pos++
		header := s.Records[0]
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		return Event{Kind: EventRow, Row: row}
	}

	ev := Event{Kind: EventDone}
	if s.Err != nil {
		ev = Event{Kind: EventFailed, Err: s.Err}
	}
	s.terminal = &ev
	return ev
}
