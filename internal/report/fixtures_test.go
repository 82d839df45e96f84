package report

import (
	"errors"
	"testing"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

func assertReportFailed(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, enemgap.ErrReportFailed) {
		t.Errorf("err = %v, want ErrReportFailed", err)
	}
}

// sampleRow builds one complete analysis row; the four objective scores
// step by 10 from base so the mean objective score is base+15.
func sampleRow(code, sex string, race int64, state string, base float64) enemgap.AnalysisRow {
	group, _ := enemgap.IncomeGroupForCode(code)
	return enemgap.AnalysisRow{
		IncomeCode:         code,
		IncomeGroup:        group,
		Sex:                sex,
		RaceCode:           race,
		State:              state,
		ScienceScore:       base,
		HumanitiesScore:    base + 10,
		LanguageScore:      base + 20,
		MathScore:          base + 30,
		EssayScore:         base + 40,
		MeanObjectiveScore: base + 15,
	}
}

// sampleTable has hand-checkable statistics: the "No income" group's
// science scores are {400, 500, 600} (mean 500, median 500, std 100) and
// the "Up to ~1.3k" group's are {700, 800} (mean 750, std 70.71). Only SP
// has rows in both income groups.
func sampleTable() *enemgap.AnalysisTable {
	return &enemgap.AnalysisTable{
		Rows: []enemgap.AnalysisRow{
			sampleRow("A", "F", 1, "SP", 400),
			sampleRow("A", "M", 3, "SP", 500),
			sampleRow("A", "F", 1, "RJ", 600),
			sampleRow("B", "F", 1, "SP", 700),
			sampleRow("B", "M", 4, "SP", 800),
		},
		Extracted: 7,
	}
}
