package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// AnalysisCSVName is the file name of the flattened analysis table.
const AnalysisCSVName = "analysis_rows.csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSVWithBOM writes a UTF-8 CSV prefixed with a byte order mark so
// Excel and Power BI pick the right encoding.
func writeCSVWithBOM(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM to %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header to %q: %w", path, err)
	}
	for i, record := range records {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing record %d to %q: %w", i+1, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %q: %w", path, err)
	}
	return f.Close()
}

// AnalysisCSVReporter writes the analysis table as a flat CSV for
// downstream BI tools.
//
// Thread-Safety: safe for concurrent Report() calls.
type AnalysisCSVReporter struct {
	logger enemgap.Logger
}

// NewAnalysisCSVReporter creates an AnalysisCSVReporter.
//
// Panics if logger is nil (programmer error).
func NewAnalysisCSVReporter(logger enemgap.Logger) *AnalysisCSVReporter {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &AnalysisCSVReporter{logger: logger}
}

var analysisCSVHeader = []string{
	"income_code", "income_group", "sex", "race_code", "state",
	"science_score", "humanities_score", "language_score", "math_score",
	"essay_score", "mean_objective_score",
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Report writes analysis_rows.csv.
func (r *AnalysisCSVReporter) Report(ctx context.Context, table *enemgap.AnalysisTable, outputDir string) ([]string, error) {
	records := make([][]string, table.Len())
	for i, row := range table.Rows {
		records[i] = []string{
			row.IncomeCode,
			row.IncomeGroup,
			row.Sex,
			strconv.FormatInt(row.RaceCode, 10),
			row.State,
			formatScore(row.ScienceScore),
			formatScore(row.HumanitiesScore),
			formatScore(row.LanguageScore),
			formatScore(row.MathScore),
			formatScore(row.EssayScore),
			formatScore(row.MeanObjectiveScore),
		}
	}

	path := filepath.Join(outputDir, AnalysisCSVName)
	if err := writeCSVWithBOM(path, analysisCSVHeader, records); err != nil {
		return nil, fmt.Errorf("%w: %w", enemgap.ErrReportFailed, err)
	}

	r.logger.Info("✓ Analysis CSV written: %s (%d rows)", path, len(records))
	return []string{AnalysisCSVName}, nil
}

// Verify AnalysisCSVReporter implements the Reporter interface at compile time
var _ enemgap.Reporter = (*AnalysisCSVReporter)(nil)
