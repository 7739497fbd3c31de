package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ValueCount is one distinct value and the number of times it was observed.
type ValueCount struct {
	Value string
	Count int
}

// FrequencyTracker counts distinct raw values in first-observed order.
//
// Every distinct value is retained until the pass ends, so memory grows with
// column cardinality. Callers that profile unbounded-cardinality columns
// (IDs, timestamps) pay for it here.
type FrequencyTracker struct {
	index   map[string]int
	entries []ValueCount
}

// NewFrequencyTracker returns an empty tracker.
func NewFrequencyTracker() *FrequencyTracker {
	return &FrequencyTracker{index: make(map[string]int)}
}

// Observe increments the count for value.
func (f *FrequencyTracker) Observe(value string) {
	if i, ok := f.index[value]; ok {
		f.entries[i].Count++
		return
	}
	f.index[value] = len(f.entries)
	f.entries = append(f.entries, ValueCount{Value: value, Count: 1})
}

// Distinct returns the number of distinct values observed.
func (f *FrequencyTracker) Distinct() int {
	return len(f.entries)
}

// Count returns how many times value was observed.
func (f *FrequencyTracker) Count(value string) int {
	if i, ok := f.index[value]; ok {
		return f.entries[i].Count
	}
	return 0
}

// Top returns at most k entries ordered by descending count. Entries with
// equal counts keep their first-observed order.
func (f *FrequencyTracker) Top(k int) []ValueCount {
	ranked := make([]ValueCount, len(f.entries))
	copy(ranked, f.entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// TopValues is a ranked value→count list. It encodes as a JSON object whose
// keys appear in rank order.
type TopValues []ValueCount

// Map returns the entries as a plain map. Rank order is lost.
func (t TopValues) Map() map[string]int {
	m := make(map[string]int, len(t))
	for _, vc := range t {
		m[vc.Value] = vc.Count
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (t TopValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, vc := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(vc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", vc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (t *TopValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("topValues: expected object, got %v", tok)
	}

	out := TopValues{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("topValues: expected string key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("topValues: count for %q: %w", key, err)
		}
		out = append(out, ValueCount{Value: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}
