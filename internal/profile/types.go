// Package profile implements the single-pass column profiling engine.
//
// A pass consumes a RowSource (header event, row events, one terminal event),
// keeps one ColumnAccumulator per header, and on success produces an immutable
// AnalysisResult. The engine never holds more than one row at a time; the only
// state that grows with the input is each column's frequency tracker.
package profile

import (
	"encoding/json"
	"math"
)

// ColumnType is the inferred type of a column.
type ColumnType string

const (
	TypeUnknown     ColumnType = "unknown"
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
)

const (
	// MaxNumericCardinality is the largest number of distinct values a numeric
	// column may have and still get a topValues view.
	MaxNumericCardinality = 50

	// TopValuesLimit caps the number of entries in topValues.
	TopValuesLimit = 10
)

// NumericStats holds the finalized aggregates of a numeric column.
//
// Sum and Average overflow to ±Inf when the inputs are large enough. Non-finite
// values are written as JSON null and read back as NaN.
type NumericStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Sum     float64 `json:"sum"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// ColumnStat is the finalized summary of one column.
//
// NumericStats is nil for categorical columns, so none of its fields are
// serialized. TopValues is nil only for numeric columns whose cardinality
// exceeded MaxNumericCardinality.
type ColumnStat struct {
	Type ColumnType `json:"type"`
	*NumericStats
	TopValues *TopValues `json:"topValues,omitempty"`
}

// Top returns the ranked top values, or nil when none were kept.
func (c ColumnStat) Top() []ValueCount {
	if c.TopValues == nil {
		return nil
	}
	return *c.TopValues
}

// jsonFloat encodes NaN and ±Inf as null, which encoding/json rejects.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func newJSONFloat(v float64) *jsonFloat {
	f := jsonFloat(v)
	return &f
}

func (f *jsonFloat) value() float64 {
	if f == nil {
		return math.NaN()
	}
	return float64(*f)
}

// columnStatJSON is the wire shape of ColumnStat. Pointers keep the numeric
// fields out of categorical output.
type columnStatJSON struct {
	Type      ColumnType `json:"type"`
	Min       *jsonFloat `json:"min,omitempty"`
	Max       *jsonFloat `json:"max,omitempty"`
	Sum       *jsonFloat `json:"sum,omitempty"`
	Count     *int64     `json:"count,omitempty"`
	Average   *jsonFloat `json:"average,omitempty"`
	TopValues *TopValues `json:"topValues,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c ColumnStat) MarshalJSON() ([]byte, error) {
	out := columnStatJSON{Type: c.Type, TopValues: c.TopValues}
	if ns := c.NumericStats; ns != nil {
		count := ns.Count
		out.Min = newJSONFloat(ns.Min)
		out.Max = newJSONFloat(ns.Max)
		out.Sum = newJSONFloat(ns.Sum)
		out.Count = &count
		out.Average = newJSONFloat(ns.Average)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. A present count marks a numeric
// column; null aggregates decode as NaN.
func (c *ColumnStat) UnmarshalJSON(data []byte) error {
	var in struct {
		Type      ColumnType `json:"type"`
		Min       *float64   `json:"min"`
		Max       *float64   `json:"max"`
		Sum       *float64   `json:"sum"`
		Count     *int64     `json:"count"`
		Average   *float64   `json:"average"`
		TopValues *TopValues `json:"topValues"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*c = ColumnStat{Type: in.Type, TopValues: in.TopValues}
	if in.Count != nil {
		c.NumericStats = &NumericStats{
			Min:     (*jsonFloat)(in.Min).value(),
			Max:     (*jsonFloat)(in.Max).value(),
			Sum:     (*jsonFloat)(in.Sum).value(),
			Count:   *in.Count,
			Average: (*jsonFloat)(in.Average).value(),
		}
	}
	return nil
}

// AnalysisResult is the output of a completed pass.
type AnalysisResult struct {
	TotalRows   int                   `json:"totalRows"`
	FileHeaders []string              `json:"fileHeaders"`
	ColumnData  map[string]ColumnStat `json:"columnData"`
}

// ColumnCount returns the number of headers as received from the source.
func (r *AnalysisResult) ColumnCount() int {
	return len(r.FileHeaders)
}
