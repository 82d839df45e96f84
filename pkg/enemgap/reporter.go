package enemgap

import "context"

// Reporter writes one output artifact derived from the analysis table into
// a run's output directory.
type Reporter interface {
	// Report writes the reporter's file(s) under outputDir and returns the
	// names of the files created, relative to outputDir. A failure to
	// produce an artifact is fatal to the run (ErrReportFailed).
	Report(ctx context.Context, table *AnalysisTable, outputDir string) ([]string, error)
}
