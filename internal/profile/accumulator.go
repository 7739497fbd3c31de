package profile

import "math"

// ColumnAccumulator is the mutable per-column state of a pass.
//
// Numeric aggregates only move while the column is numeric. Once the column
// turns categorical they are left as they were and never exposed.
type ColumnAccumulator struct {
	typ   ColumnType
	min   float64
	max   float64
	sum   float64
	count int64
	freq  *FrequencyTracker
}

// NewColumnAccumulator returns an accumulator in state unknown.
func NewColumnAccumulator() *ColumnAccumulator {
	return &ColumnAccumulator{
		typ:  TypeUnknown,
		min:  math.Inf(1),
		max:  math.Inf(-1),
		freq: NewFrequencyTracker(),
	}
}

// Update applies one raw cell value. Empty values are skipped entirely.
func (a *ColumnAccumulator) Update(raw string) {
	if raw == "" {
		return
	}

	if v, ok := ParseNumeric(raw); ok && a.typ != TypeCategorical {
		a.typ = TypeNumeric
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
		a.sum += v
		a.count++
	} else {
		a.typ = TypeCategorical
	}

	a.freq.Observe(raw)
}

// Type returns the current inferred type.
func (a *ColumnAccumulator) Type() ColumnType { return a.typ }

// Count returns the number of numeric values applied while numeric.
func (a *ColumnAccumulator) Count() int64 { return a.count }

// Frequencies exposes the tracker for inspection.
func (a *ColumnAccumulator) Frequencies() *FrequencyTracker { return a.freq }
