package core

import (
	"errors"

	"github.com/JonMunkholm/csvstats/internal/profile"
)

var (
	// ErrAnalysisNotFound means no running or recently finished analysis has the ID.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrAnalyticsNotFound means the cache holds no result for the ID, either
	// because it never completed or because it expired.
	ErrAnalyticsNotFound = errors.New("analytics not found in cache")
)

// AnalysisPhase is the stage an analysis is in.
type AnalysisPhase string

const (
	PhaseQueued    AnalysisPhase = "queued"
	PhaseAnalyzing AnalysisPhase = "analyzing"
	PhaseSaving    AnalysisPhase = "saving"
	PhaseComplete  AnalysisPhase = "complete"
	PhaseFailed    AnalysisPhase = "failed"
)

// Terminal reports whether no further updates follow.
func (p AnalysisPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// AnalysisProgress is a snapshot of one analysis.
type AnalysisProgress struct {
	DatasetID     string        `json:"datasetId"`
	FileName      string        `json:"fileName"`
	Phase         AnalysisPhase `json:"phase"`
	RowsProcessed int           `json:"rowsProcessed"`
	BytesRead     int64         `json:"bytesRead"`
	BytesTotal    int64         `json:"bytesTotal"`
	Error         string        `json:"error,omitempty"`
}

// Percent estimates completion from bytes consumed.
func (p AnalysisProgress) Percent() int {
	switch {
	case p.Phase == PhaseComplete:
		return 100
	case p.BytesTotal <= 0:
		return 0
	}
	pct := int(p.BytesRead * 100 / p.BytesTotal)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// AnalysisOutcome is what a finished analysis leaves behind in memory.
type AnalysisOutcome struct {
	Progress AnalysisProgress
	Result   *profile.AnalysisResult
	Err      error
}
