package profile

// Finalize turns one accumulator into its immutable summary.
func Finalize(a *ColumnAccumulator) ColumnStat {
	if a.typ != TypeNumeric {
		top := TopValues(a.freq.Top(TopValuesLimit))
		return ColumnStat{Type: TypeCategorical, TopValues: &top}
	}

	ns := &NumericStats{
		Min:   a.min,
		Max:   a.max,
		Sum:   a.sum,
		Count: a.count,
	}
	if a.count > 0 {
		ns.Average = a.sum / float64(a.count)
	} else {
		// min/max still hold the ±Inf sentinels.
		ns.Min, ns.Max, ns.Average = 0, 0, 0
	}

	stat := ColumnStat{Type: TypeNumeric, NumericStats: ns}
	if a.freq.Distinct() <= MaxNumericCardinality {
		top := TopValues(a.freq.Top(TopValuesLimit))
		stat.TopValues = &top
	}
	return stat
}

// finalizeAll builds the result for a completed pass.
func finalizeAll(headers []string, columns map[string]*ColumnAccumulator, totalRows int) *AnalysisResult {
	data := make(map[string]ColumnStat, len(columns))
	for name, acc := range columns {
		data[name] = Finalize(acc)
	}

	fileHeaders := make([]string, len(headers))
	copy(fileHeaders, headers)

	return &AnalysisResult{
		TotalRows:   totalRows,
		FileHeaders: fileHeaders,
		ColumnData:  data,
	}
}
