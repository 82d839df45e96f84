package enemgap

import "context"

// BulkLoader streams a delimited source file into a database table in
// bounded-size batches. The first batch replaces the table (drop and
// recreate), subsequent batches append, so a finished load always reflects
// exactly one pass over the file.
type BulkLoader interface {
	// Load reads the file at filePath and writes its rows into tableName.
	// It returns the number of rows written. A missing source file fails
	// with ErrInputFileMissing before the target table is touched.
	Load(ctx context.Context, conn DBConnection, tableName, filePath string) (int64, error)
}

// JoinLoader builds the result table: it reads the registration-number
// column from the participant file, aligns it with the result file by row
// order, and writes the augmented rows into the target table.
//
// The alignment is positional, not key-based: the raw result file carries
// no join key. Both files must therefore share identical row order and
// row count; the loader validates the counts and refuses to write when
// they differ (ErrRowCountMismatch), but identical ordering remains an
// assumption it cannot check.
type JoinLoader interface {
	// Load writes the aligned result rows into tableName. It returns the
	// number of rows written. A missing result file fails with
	// ErrInputFileMissing before either file's data is read.
	Load(ctx context.Context, conn DBConnection, tableName, participantsFile, resultsFile string) (int64, error)
}

// LoadOrchestrator decides which loads to run based on which target tables
// already exist. Existence is the only signal: a table left half-loaded by
// an interrupted run still counts as loaded and is not reloaded. Re-running
// against a store where both tables exist performs zero writes.
type LoadOrchestrator interface {
	// EnsureLoaded checks the catalog and runs the loaders for whichever
	// tables are missing. The returned LoadReport records what ran.
	EnsureLoaded(ctx context.Context, conn DBConnection, config PipelineConfig) (LoadReport, error)
}

// LoadReport records what a LoadOrchestrator invocation did.
type LoadReport struct {
	// ParticipantsLoaded and ResultsLoaded report whether the respective
	// loader ran (false means the table already existed).
	ParticipantsLoaded bool
	ResultsLoaded      bool

	// ParticipantRows and ResultRows are the row counts written by the
	// loaders that ran; zero when skipped.
	ParticipantRows int64
	ResultRows      int64
}

// Skipped reports whether the whole ETL stage was a no-op.
func (r LoadReport) Skipped() bool {
	return !r.ParticipantsLoaded && !r.ResultsLoaded
}
