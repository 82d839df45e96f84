package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// Chart file names, one HTML document per comparison.
const (
	BoxChartName   = "score_distributions.html"
	RaceChartName  = "scores_by_race.html"
	SexChartName   = "scores_by_sex.html"
	StateChartName = "state_score_gap.html"
)

// raceLabels maps the IBGE TP_COR_RACA codes; codes outside the map are
// left out of the race chart.
var raceLabels = map[int64]string{
	0: "Not declared",
	1: "White",
	2: "Black",
	3: "Brown",
	4: "Asian",
	5: "Indigenous",
}

var raceOrder = []string{"White", "Brown", "Black", "Asian", "Indigenous", "Not declared"}

var sexLabels = map[string]string{"F": "Female", "M": "Male"}

var sexOrder = []string{"Female", "Male"}

// boxColumns enumerates the box-plot panels in display order.
var boxColumns = []struct {
	label string
	value func(enemgap.AnalysisRow) float64
}{
	{"Mean objective", func(r enemgap.AnalysisRow) float64 { return r.MeanObjectiveScore }},
	{"Natural sciences", func(r enemgap.AnalysisRow) float64 { return r.ScienceScore }},
	{"Human sciences", func(r enemgap.AnalysisRow) float64 { return r.HumanitiesScore }},
	{"Languages", func(r enemgap.AnalysisRow) float64 { return r.LanguageScore }},
	{"Mathematics", func(r enemgap.AnalysisRow) float64 { return r.MathScore }},
	{"Essay", func(r enemgap.AnalysisRow) float64 { return r.EssayScore }},
}

// ChartReporter renders the four comparison charts as self-contained HTML
// documents.
//
// Thread-Safety: safe for concurrent Report() calls.
type ChartReporter struct {
	logger enemgap.Logger
}

// NewChartReporter creates a ChartReporter.
//
// Panics if logger is nil (programmer error).
func NewChartReporter(logger enemgap.Logger) *ChartReporter {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ChartReporter{logger: logger}
}

// Report renders all four charts. offline.ToHtml reports nothing, so each
// output file is stat'ed to confirm it was actually written.
func (r *ChartReporter) Report(ctx context.Context, table *enemgap.AnalysisTable, outputDir string) ([]string, error) {
	charts := []struct {
		name  string
		build func(*enemgap.AnalysisTable) *grob.Fig
	}{
		{BoxChartName, boxFigure},
		{RaceChartName, raceFigure},
		{SexChartName, sexFigure},
		{StateChartName, stateGapFigure},
	}

	var files []string
	for _, chart := range charts {
		if err := ctx.Err(); err != nil {
			return files, fmt.Errorf("%w: rendering charts: %w", enemgap.ErrReportFailed, err)
		}

		path := filepath.Join(outputDir, chart.name)
		offline.ToHtml(chart.build(table), path)
		if _, err := os.Stat(path); err != nil {
			return files, fmt.Errorf("%w: chart %q was not written: %w", enemgap.ErrReportFailed, chart.name, err)
		}
		r.logger.Verbose("  chart: %s", chart.name)
		files = append(files, chart.name)
	}

	r.logger.Info("✓ Charts written: %d files", len(files))
	return files, nil
}

// boxFigure builds grouped box plots: score distribution per column, the
// two income groups side by side.
func boxFigure(table *enemgap.AnalysisTable) *grob.Fig {
	fig := &grob.Fig{Layout: &grob.Layout{
		Title:   &grob.LayoutTitle{Text: "Score distributions: No income vs. Up to ~1.3k"},
		Boxmode: grob.BoxBoxmodeGroup,
		Yaxis:   &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: "Score"}},
	}}

	for _, group := range incomeGroupOrder {
		var x []string
		var y []float64
		for _, row := range table.Rows {
			if row.IncomeGroup != group {
				continue
			}
			for _, col := range boxColumns {
				x = append(x, col.label)
				y = append(y, col.value(row))
			}
		}
		fig.AddTraces(&grob.Box{Type: grob.TraceTypeBox, Name: group, X: x, Y: y})
	}
	return fig
}

// meanAcc is a running mean accumulator.
type meanAcc struct {
	sum float64
	n   int
}

func (a meanAcc) mean() float64 { return a.sum / float64(a.n) }

// groupedBars builds a grouped bar figure of the mean objective score per
// category label within each income group.
func groupedBars(table *enemgap.AnalysisTable, title, xTitle string, order []string, labelFor func(enemgap.AnalysisRow) (string, bool)) *grob.Fig {
	acc := make(map[string]map[string]meanAcc, len(incomeGroupOrder))
	for _, row := range table.Rows {
		label, ok := labelFor(row)
		if !ok {
			continue
		}
		if acc[row.IncomeGroup] == nil {
			acc[row.IncomeGroup] = make(map[string]meanAcc, len(order))
		}
		a := acc[row.IncomeGroup][label]
		a.sum += row.MeanObjectiveScore
		a.n++
		acc[row.IncomeGroup][label] = a
	}

	fig := &grob.Fig{Layout: &grob.Layout{
		Title:   &grob.LayoutTitle{Text: title},
		Barmode: grob.BarBarmodeGroup,
		Xaxis:   &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: xTitle}},
		Yaxis:   &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: "Mean objective score"}},
	}}

	for _, group := range incomeGroupOrder {
		var labels []string
		var means []float64
		for _, label := range order {
			a, ok := acc[group][label]
			if !ok {
				continue
			}
			labels = append(labels, label)
			means = append(means, a.mean())
		}
		fig.AddTraces(&grob.Bar{Type: grob.TraceTypeBar, Name: group, X: labels, Y: means})
	}
	return fig
}

func raceFigure(table *enemgap.AnalysisTable) *grob.Fig {
	return groupedBars(table,
		"Mean objective score by race within each income group", "Race", raceOrder,
		func(row enemgap.AnalysisRow) (string, bool) {
			label, ok := raceLabels[row.RaceCode]
			return label, ok
		})
}

func sexFigure(table *enemgap.AnalysisTable) *grob.Fig {
	return groupedBars(table,
		"Mean objective score by sex within each income group", "Sex", sexOrder,
		func(row enemgap.AnalysisRow) (string, bool) {
			label, ok := sexLabels[row.Sex]
			return label, ok
		})
}

// stateGapFigure builds horizontal bars of the per-state gap between the
// two income groups' mean objective scores. States missing either group
// are dropped.
func stateGapFigure(table *enemgap.AnalysisTable) *grob.Fig {
	acc := make(map[string]map[string]meanAcc)
	for _, row := range table.Rows {
		if row.State == "" {
			continue
		}
		if acc[row.State] == nil {
			acc[row.State] = make(map[string]meanAcc, len(incomeGroupOrder))
		}
		a := acc[row.State][row.IncomeGroup]
		a.sum += row.MeanObjectiveScore
		a.n++
		acc[row.State][row.IncomeGroup] = a
	}

	type stateGap struct {
		state string
		gap   float64
	}
	var gaps []stateGap
	for state, groups := range acc {
		none, hasNone := groups[enemgap.IncomeGroupNone]
		upTo, hasUpTo := groups[enemgap.IncomeGroupUpTo1300]
		if !hasNone || !hasUpTo {
			continue
		}
		gaps = append(gaps, stateGap{state: state, gap: upTo.mean() - none.mean()})
	}
	// Plotly draws the first category at the bottom; ascending order puts
	// the largest gap on top.
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].gap < gaps[j].gap })

	states := make([]string, len(gaps))
	values := make([]float64, len(gaps))
	for i, g := range gaps {
		states[i] = g.state
		values[i] = g.gap
	}

	fig := &grob.Fig{Layout: &grob.Layout{
		Title: &grob.LayoutTitle{Text: "Mean objective score gap by state (Up to ~1.3k − No income)"},
		Xaxis: &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: "Score difference"}},
		Yaxis: &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: "State"}},
	}}
	fig.AddTraces(&grob.Bar{
		Type:        grob.TraceTypeBar,
		Name:        "Gap",
		X:           values,
		Y:           states,
		Orientation: grob.BarOrientationH,
	})
	return fig
}

// Verify ChartReporter implements the Reporter interface at compile time
var _ enemgap.Reporter = (*ChartReporter)(nil)
