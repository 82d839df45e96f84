package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

func testPipelineConfig() enemgap.PipelineConfig {
	return enemgap.PipelineConfig{
		ParticipantsTable: "participants",
		ResultsTable:      "results",
		ParticipantsFile:  "/data/participants.csv",
		ResultsFile:       "/data/results.csv",
	}
}

func TestNewOrchestrator_NilDeps(t *testing.T) {
	var calls []loadCall
	catalog := &mockCatalog{}
	bulk := &mockBulkLoader{calls: &calls}
	join := &mockJoinLoader{calls: &calls}

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil catalog", func() { NewOrchestrator(nil, bulk, join, nullLogger{}) }},
		{"nil bulk loader", func() { NewOrchestrator(catalog, nil, join, nullLogger{}) }},
		{"nil join loader", func() { NewOrchestrator(catalog, bulk, nil, nullLogger{}) }},
		{"nil logger", func() { NewOrchestrator(catalog, bulk, join, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestEnsureLoaded_TableStates(t *testing.T) {
	tests := []struct {
		name      string
		exists    map[string]bool
		wantCalls []loadCall
		wantLoads enemgap.LoadReport
	}{
		{
			name:   "both missing loads both, participants first",
			exists: map[string]bool{},
			wantCalls: []loadCall{
				{loader: "bulk", table: "participants"},
				{loader: "join", table: "results"},
			},
			wantLoads: enemgap.LoadReport{
				ParticipantsLoaded: true, ResultsLoaded: true,
				ParticipantRows: 11, ResultRows: 7,
			},
		},
		{
			name:      "participants exists loads only results",
			exists:    map[string]bool{"participants": true},
			wantCalls: []loadCall{{loader: "join", table: "results"}},
			wantLoads: enemgap.LoadReport{ResultsLoaded: true, ResultRows: 7},
		},
		{
			name:      "results exists loads only participants",
			exists:    map[string]bool{"results": true},
			wantCalls: []loadCall{{loader: "bulk", table: "participants"}},
			wantLoads: enemgap.LoadReport{ParticipantsLoaded: true, ParticipantRows: 11},
		},
		{
			name:      "both exist loads nothing",
			exists:    map[string]bool{"participants": true, "results": true},
			wantCalls: nil,
			wantLoads: enemgap.LoadReport{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []loadCall
			o := NewOrchestrator(
				&mockCatalog{exists: tt.exists},
				&mockBulkLoader{calls: &calls, rows: 11},
				&mockJoinLoader{calls: &calls, rows: 7},
				nullLogger{},
			)

			report, err := o.EnsureLoaded(context.Background(), &mockConn{}, testPipelineConfig())
			if err != nil {
				t.Fatal(err)
			}

			if len(calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", calls, tt.wantCalls)
			}
			for i, want := range tt.wantCalls {
				if calls[i] != want {
					t.Errorf("call %d = %v, want %v", i, calls[i], want)
				}
			}
			if report != tt.wantLoads {
				t.Errorf("report = %+v, want %+v", report, tt.wantLoads)
			}
			if report.Skipped() != (len(tt.wantCalls) == 0) {
				t.Errorf("Skipped() = %v with %d loads", report.Skipped(), len(tt.wantCalls))
			}
		})
	}
}

func TestEnsureLoaded_CatalogError(t *testing.T) {
	var calls []loadCall
	catErr := errors.New("connection reset")
	o := NewOrchestrator(
		&mockCatalog{err: catErr},
		&mockBulkLoader{calls: &calls},
		&mockJoinLoader{calls: &calls},
		nullLogger{},
	)

	_, err := o.EnsureLoaded(context.Background(), &mockConn{}, testPipelineConfig())
	if !errors.Is(err, enemgap.ErrExecutionFailed) {
		t.Fatalf("err = %v, want ErrExecutionFailed", err)
	}
	if !errors.Is(err, catErr) {
		t.Errorf("underlying cause lost: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("loaders ran despite catalog failure: %v", calls)
	}
}

func TestEnsureLoaded_BulkLoaderErrorStopsJoin(t *testing.T) {
	var calls []loadCall
	loadErr := errors.New("disk full")
	o := NewOrchestrator(
		&mockCatalog{},
		&mockBulkLoader{calls: &calls, err: loadErr},
		&mockJoinLoader{calls: &calls},
		nullLogger{},
	)

	report, err := o.EnsureLoaded(context.Background(), &mockConn{}, testPipelineConfig())
	if !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want the loader's error", err)
	}
	// The join loader must not run after the bulk load failed.
	if len(calls) != 1 || calls[0].loader != "bulk" {
		t.Errorf("calls = %v, want only the bulk loader", calls)
	}
	if report.ParticipantsLoaded || report.ResultsLoaded {
		t.Errorf("report claims a load succeeded: %+v", report)
	}
}

func TestEnsureLoaded_JoinLoaderError(t *testing.T) {
	var calls []loadCall
	loadErr := errors.New("row skew")
	o := NewOrchestrator(
		&mockCatalog{exists: map[string]bool{"participants": true}},
		&mockBulkLoader{calls: &calls},
		&mockJoinLoader{calls: &calls, err: loadErr},
		nullLogger{},
	)

	_, err := o.EnsureLoaded(context.Background(), &mockConn{}, testPipelineConfig())
	if !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want the loader's error", err)
	}
}
