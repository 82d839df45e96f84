package report

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// StatsCSVName is the file name of the descriptive statistics table.
const StatsCSVName = "descriptive_statistics.csv"

// scoreColumns enumerates the analyzed score columns in report order.
var scoreColumns = []struct {
	name  string
	value func(enemgap.AnalysisRow) float64
}{
	{"science_score", func(r enemgap.AnalysisRow) float64 { return r.ScienceScore }},
	{"humanities_score", func(r enemgap.AnalysisRow) float64 { return r.HumanitiesScore }},
	{"language_score", func(r enemgap.AnalysisRow) float64 { return r.LanguageScore }},
	{"math_score", func(r enemgap.AnalysisRow) float64 { return r.MathScore }},
	{"essay_score", func(r enemgap.AnalysisRow) float64 { return r.EssayScore }},
	{"mean_objective_score", func(r enemgap.AnalysisRow) float64 { return r.MeanObjectiveScore }},
}

// incomeGroupOrder fixes the group order in statistics and charts.
var incomeGroupOrder = []string{enemgap.IncomeGroupNone, enemgap.IncomeGroupUpTo1300}

// StatsReporter writes per-income-group descriptive statistics (mean,
// median, sample standard deviation) for every score column.
//
// Thread-Safety: safe for concurrent Report() calls.
type StatsReporter struct {
	logger enemgap.Logger
}

// NewStatsReporter creates a StatsReporter.
//
// Panics if logger is nil (programmer error).
func NewStatsReporter(logger enemgap.Logger) *StatsReporter {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StatsReporter{logger: logger}
}

var statsCSVHeader = []string{"income_group", "score_column", "mean", "median", "std"}

// formatStat rounds to two decimals. The sample standard deviation of a
// single observation is NaN; it is written as an empty field.
func formatStat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
}

// median returns the middle value of sorted, or the midpoint of the two
// middle values for even counts. gonum's Quantile interpolates along the
// ECDF, which is a different convention than the one the statistics table
// documents.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Report writes descriptive_statistics.csv: one row per income group and
// score column.
func (r *StatsReporter) Report(ctx context.Context, table *enemgap.AnalysisTable, outputDir string) ([]string, error) {
	grouped := make(map[string][]enemgap.AnalysisRow, len(incomeGroupOrder))
	for _, row := range table.Rows {
		grouped[row.IncomeGroup] = append(grouped[row.IncomeGroup], row)
	}

	var records [][]string
	for _, group := range incomeGroupOrder {
		rows := grouped[group]
		if len(rows) == 0 {
			continue
		}
		for _, col := range scoreColumns {
			values := make([]float64, len(rows))
			for i, row := range rows {
				values[i] = col.value(row)
			}
			sort.Float64s(values)

			records = append(records, []string{
				group,
				col.name,
				formatStat(stat.Mean(values, nil)),
				formatStat(median(values)),
				formatStat(stat.StdDev(values, nil)),
			})
		}
	}

	path := filepath.Join(outputDir, StatsCSVName)
	if err := writeCSVWithBOM(path, statsCSVHeader, records); err != nil {
		return nil, fmt.Errorf("%w: %w", enemgap.ErrReportFailed, err)
	}

	r.logger.Info("✓ Descriptive statistics written: %s", path)
	return []string{StatsCSVName}, nil
}

// Verify StatsReporter implements the Reporter interface at compile time
var _ enemgap.Reporter = (*StatsReporter)(nil)
