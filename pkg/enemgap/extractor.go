package enemgap

import "context"

// Extractor runs the analysis query (participants joined to results,
// restricted to the two analyzed income brackets) and turns the result set
// into an in-memory
// AnalysisTable: rows with any missing score dropped, the mean objective
// score computed, and the income-group label attached.
type Extractor interface {
	// Extract returns the analysis table. Query and scan errors are fatal
	// to the run; there are no retries.
	Extract(ctx context.Context, conn DBConnection, config PipelineConfig) (*AnalysisTable, error)
}

// AnalysisTable is the in-memory output of the Extractor, ready for
// reporting. Every row satisfies the AnalysisRow invariants.
type AnalysisTable struct {
	Rows []AnalysisRow

	// Extracted is the number of rows the join query returned before
	// incomplete rows were dropped.
	Extracted int
}

// Len returns the number of retained rows.
func (t *AnalysisTable) Len() int {
	return len(t.Rows)
}

// Dropped returns how many extracted rows were discarded for missing
// scores.
func (t *AnalysisTable) Dropped() int {
	return t.Extracted - len(t.Rows)
}
