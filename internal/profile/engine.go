package profile

import (
	"context"
	"errors"
	"fmt"
)

// State is the lifecycle state of a Pass.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultProgressEvery is how many rows pass between progress callbacks.
const DefaultProgressEvery = 1000

// ErrPassUsed is returned when Run is called on a pass that already ran.
var ErrPassUsed = errors.New("profile: pass already run")

// Options configures a Pass.
type Options struct {
	// OnProgress, if set, is called with the number of rows processed so far
	// every ProgressEvery rows. It runs on the pass goroutine.
	OnProgress    func(rows int)
	ProgressEvery int
}

// Pass is one traversal of a row stream. It owns its accumulators and is
// not safe for concurrent use; independent passes share nothing.
type Pass struct {
	opts  Options
	state State

	headers   []string
	order     []string
	columns   map[string]*ColumnAccumulator
	totalRows int
}

// NewPass returns an idle pass.
func NewPass(opts Options) *Pass {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	return &Pass{opts: opts, state: StateIdle}
}

// State returns the current lifecycle state.
func (p *Pass) State() State { return p.state }

// Run drives src to its terminal event. On success it returns the finalized
// result; on failure it returns the source error and no result.
func (p *Pass) Run(src RowSource) (*AnalysisResult, error) {
	if p.state != StateIdle {
		return nil, ErrPassUsed
	}
	p.state = StateRunning

	for {
		ev := src.Next()
		switch ev.Kind {
		case EventHeader:
			if p.columns != nil {
				return p.fail(&SourceParseError{Err: errors.New("duplicate header event")})
			}
			p.start(ev.Header)

		case EventRow:
			if p.columns == nil {
				return p.fail(&SourceParseError{Err: errors.New("row event before header")})
			}
			p.apply(ev.Row)

		case EventDone:
			if p.columns == nil {
				return p.fail(&SourceParseError{Err: errors.New("stream ended before header")})
			}
			result := finalizeAll(p.headers, p.columns, p.totalRows)
			p.columns = nil
			p.state = StateCompleted
			return result, nil

		case EventFailed:
			err := ev.Err
			if err == nil {
				err = &SourceReadError{Err: errors.New("unspecified source failure")}
			}
			return p.fail(err)

		default:
			return p.fail(&SourceParseError{Err: fmt.Errorf("unknown event kind %v", ev.Kind)})
		}
	}
}

func (p *Pass) fail(err error) (*AnalysisResult, error) {
	p.columns = nil
	p.state = StateFailed
	return nil, err
}

// start creates one accumulator per distinct header name. Duplicate names
// alias the same accumulator.
func (p *Pass) start(header []string) {
	p.headers = append([]string{}, header...)
	p.columns = make(map[string]*ColumnAccumulator, len(header))
	for _, name := range header {
		if _, ok := p.columns[name]; ok {
			continue
		}
		p.columns[name] = NewColumnAccumulator()
		p.order = append(p.order, name)
	}
}

func (p *Pass) apply(row map[string]string) {
	p.totalRows++
	for _, name := range p.order {
		if raw, ok := row[name]; ok {
			p.columns[name].Update(raw)
		}
	}
	if p.opts.OnProgress != nil && p.totalRows%p.opts.ProgressEvery == 0 {
		p.opts.OnProgress(p.totalRows)
	}
}

// Analyze runs a fresh pass over src.
func Analyze(src RowSource, opts Options) (*AnalysisResult, error) {
	return NewPass(opts).Run(src)
}

// Task is a pass running on its own goroutine. It yields exactly one
// outcome: a result or an error.
type Task struct {
	done   chan struct{}
	result *AnalysisResult
	err    error
}

// Start runs a pass over src in the background.
func Start(src RowSource, opts Options) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.result = nil
				t.err = fmt.Errorf("profile: pass panicked: %v", r)
			}
		}()
		t.result, t.err = Analyze(src, opts)
	}()
	return t
}

// Done is closed once the outcome is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the pass finishes or ctx is done. Abandoning the wait
// does not stop the pass.
func (t *Task) Wait(ctx context.Context) (*AnalysisResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
