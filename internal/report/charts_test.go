package report

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"

	"github.com/brmicrodata/enemgap/internal/logging"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

func TestChartReporter_Report(t *testing.T) {
	dir := t.TempDir()
	r := NewChartReporter(logging.NewNullLogger())

	files, err := r.Report(context.Background(), sampleTable(), dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{BoxChartName, RaceChartName, SexChartName, StateChartName}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for _, name := range want {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("chart %s missing: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("chart %s is empty", name)
		}
	}
}

func TestChartReporter_CanceledContext(t *testing.T) {
	r := NewChartReporter(logging.NewNullLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Report(ctx, sampleTable(), t.TempDir())
	if err == nil {
		t.Fatal("Expected error")
	}
	assertReportFailed(t, err)
}

func TestBoxFigure(t *testing.T) {
	fig := boxFigure(sampleTable())

	if len(fig.Data) != 2 {
		t.Fatalf("trace count = %d, want one box trace per income group", len(fig.Data))
	}
	if fig.Layout.Boxmode != grob.BoxBoxmodeGroup {
		t.Errorf("Boxmode = %v, want group", fig.Layout.Boxmode)
	}

	box, ok := fig.Data[0].(*grob.Box)
	if !ok {
		t.Fatalf("trace 0 is %T, want *grob.Box", fig.Data[0])
	}
	if box.Name != enemgap.IncomeGroupNone {
		t.Errorf("trace 0 name = %q, want %q", box.Name, enemgap.IncomeGroupNone)
	}

	// 3 "No income" rows x 6 score columns.
	x := box.X.([]string)
	y := box.Y.([]float64)
	if len(x) != 18 || len(y) != 18 {
		t.Fatalf("point count = %d/%d, want 18/18", len(x), len(y))
	}
	if x[0] != "Mean objective" || y[0] != 415 {
		t.Errorf("first point = (%q, %v), want (Mean objective, 415)", x[0], y[0])
	}
	if x[5] != "Essay" || y[5] != 440 {
		t.Errorf("sixth point = (%q, %v), want (Essay, 440)", x[5], y[5])
	}
}

func TestRaceFigure(t *testing.T) {
	fig := raceFigure(sampleTable())

	if len(fig.Data) != 2 {
		t.Fatalf("trace count = %d, want 2", len(fig.Data))
	}
	if fig.Layout.Barmode != grob.BarBarmodeGroup {
		t.Errorf("Barmode = %v, want group", fig.Layout.Barmode)
	}

	none := fig.Data[0].(*grob.Bar)
	// The two White rows average (415+615)/2; the one Brown row is 515.
	if want := []string{"White", "Brown"}; !reflect.DeepEqual(none.X.([]string), want) {
		t.Errorf("No income labels = %v, want %v", none.X, want)
	}
	if want := []float64{515, 515}; !reflect.DeepEqual(none.Y.([]float64), want) {
		t.Errorf("No income means = %v, want %v", none.Y, want)
	}

	upTo := fig.Data[1].(*grob.Bar)
	if want := []string{"White", "Asian"}; !reflect.DeepEqual(upTo.X.([]string), want) {
		t.Errorf("Up to ~1.3k labels = %v, want %v", upTo.X, want)
	}
	if want := []float64{715, 815}; !reflect.DeepEqual(upTo.Y.([]float64), want) {
		t.Errorf("Up to ~1.3k means = %v, want %v", upTo.Y, want)
	}
}

func TestRaceFigure_UnmappedCodeExcluded(t *testing.T) {
	table := &enemgap.AnalysisTable{Rows: []enemgap.AnalysisRow{
		sampleRow("A", "F", 1, "SP", 400),
		sampleRow("A", "F", 6, "SP", 900),
	}}
	fig := raceFigure(table)

	none := fig.Data[0].(*grob.Bar)
	if want := []string{"White"}; !reflect.DeepEqual(none.X.([]string), want) {
		t.Errorf("labels = %v, want only White (code 6 has no label)", none.X)
	}
}

func TestSexFigure(t *testing.T) {
	fig := sexFigure(sampleTable())

	none := fig.Data[0].(*grob.Bar)
	if want := []string{"Female", "Male"}; !reflect.DeepEqual(none.X.([]string), want) {
		t.Errorf("labels = %v, want %v", none.X, want)
	}
	if want := []float64{515, 515}; !reflect.DeepEqual(none.Y.([]float64), want) {
		t.Errorf("means = %v, want %v", none.Y, want)
	}
}

func TestStateGapFigure(t *testing.T) {
	// SP appears in both groups (gap 300), MG in both (gap 10), RJ only
	// in "No income" and must be dropped.
	table := &enemgap.AnalysisTable{Rows: []enemgap.AnalysisRow{
		sampleRow("A", "F", 1, "SP", 400),
		sampleRow("B", "F", 1, "SP", 700),
		sampleRow("A", "M", 1, "MG", 500),
		sampleRow("B", "M", 1, "MG", 510),
		sampleRow("A", "F", 1, "RJ", 600),
	}}
	fig := stateGapFigure(table)

	if len(fig.Data) != 1 {
		t.Fatalf("trace count = %d, want 1", len(fig.Data))
	}
	bar := fig.Data[0].(*grob.Bar)
	if bar.Orientation != grob.BarOrientationH {
		t.Errorf("Orientation = %v, want horizontal", bar.Orientation)
	}
	// Ascending gap order: MG (10) below SP (300).
	if want := []string{"MG", "SP"}; !reflect.DeepEqual(bar.Y.([]string), want) {
		t.Errorf("states = %v, want %v", bar.Y, want)
	}
	if want := []float64{10, 300}; !reflect.DeepEqual(bar.X.([]float64), want) {
		t.Errorf("gaps = %v, want %v", bar.X, want)
	}
}

func TestStateGapFigure_EmptyStateDropped(t *testing.T) {
	table := &enemgap.AnalysisTable{Rows: []enemgap.AnalysisRow{
		sampleRow("A", "F", 1, "", 400),
		sampleRow("B", "F", 1, "", 700),
	}}
	fig := stateGapFigure(table)

	bar := fig.Data[0].(*grob.Bar)
	if len(bar.Y.([]string)) != 0 {
		t.Errorf("states = %v, want none (blank state codes dropped)", bar.Y)
	}
}
