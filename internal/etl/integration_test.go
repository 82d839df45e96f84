package etl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brmicrodata/enemgap/internal/dbtest"
	"github.com/brmicrodata/enemgap/internal/etl"
	"github.com/brmicrodata/enemgap/internal/logging"
	"github.com/brmicrodata/enemgap/internal/sourcedata"
	"github.com/brmicrodata/enemgap/internal/store"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// writeLatin1File writes raw bytes; escapes like \xe3 produce genuine
// ISO-8859-1 content rather than this source file's UTF-8.
func writeLatin1File(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func newTestOrchestrator(batchSize int) enemgap.LoadOrchestrator {
	logger := logging.NewNullLogger()
	opener := sourcedata.NewOpener(false, logger)
	return etl.NewOrchestrator(
		store.NewCatalog(),
		etl.NewBulkLoadService(opener, logger, batchSize),
		etl.NewJoinLoadService(opener, logger, batchSize, "NU_INSCRICAO"),
		logger,
	)
}

func writeTestDataset(t *testing.T) (participants, results string) {
	t.Helper()
	dir := t.TempDir()
	participants = writeLatin1File(t, dir, "participants.csv",
		"NU_INSCRICAO;Q006;SG_UF_PROVA;NO_MUNICIPIO_ESC\n"+
			"210001;A;SP;Osasco\n"+
			"210002;B;RJ;S\xe3o Gon\xe7alo\n"+
			"210003;A;BA;Salvador\n"+
			"210004;B;RJ;Niter\xf3i\n"+
			"210005;A;PE;Recife\n")
	results = writeLatin1File(t, dir, "results.csv",
		"NU_NOTA_CN;NU_NOTA_MT\n"+
			"480.2;512.3\n"+
			";601.0\n"+
			"455.1;430.9\n"+
			"520.7;598.4\n"+
			"610.3;640.8\n")
	return participants, results
}

func TestETL_LoadAndJoin_EndToEnd(t *testing.T) {
	connString := dbtest.RequireDatabase(t)
	ctx := context.Background()

	testDB := "enemgap_etl_load"
	cleanup := dbtest.CreateTestDB(t, connString, testDB)
	t.Cleanup(cleanup)
	pool := dbtest.GetTestPool(t, connString, testDB)

	participantsFile, resultsFile := writeTestDataset(t)

	// Batch size 2 over 5 rows exercises replace-then-append against a
	// real server, including the short final batch.
	report, err := newTestOrchestrator(2).EnsureLoaded(ctx, pool, enemgap.PipelineConfig{
		ParticipantsTable: "participants",
		ResultsTable:      "results",
		ParticipantsFile:  participantsFile,
		ResultsFile:       resultsFile,
	})
	if err != nil {
		t.Fatalf("EnsureLoaded failed: %v", err)
	}
	if !report.ParticipantsLoaded || !report.ResultsLoaded {
		t.Fatalf("report = %+v, want both tables loaded", report)
	}
	if report.ParticipantRows != 5 || report.ResultRows != 5 {
		t.Errorf("report rows = %d/%d, want 5/5", report.ParticipantRows, report.ResultRows)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM participants").Scan(&count); err != nil {
		t.Fatalf("counting participants: %v", err)
	}
	if count != 5 {
		t.Errorf("participants count = %d, want 5", count)
	}
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM results").Scan(&count); err != nil {
		t.Fatalf("counting results: %v", err)
	}
	if count != 5 {
		t.Errorf("results count = %d, want 5", count)
	}

	// The third result row must carry the third participant's
	// registration number, across the batch boundary.
	var reg float64
	err = pool.QueryRow(ctx, `SELECT "NU_INSCRICAO" FROM results WHERE "NU_NOTA_MT" = 430.9`).Scan(&reg)
	if err != nil {
		t.Fatalf("querying joined registration: %v", err)
	}
	if reg != 210003 {
		t.Errorf("registration for third row = %v, want 210003", reg)
	}

	// Empty numeric fields load as NULL.
	var score *float64
	err = pool.QueryRow(ctx, `SELECT "NU_NOTA_CN" FROM results WHERE "NU_NOTA_MT" = 601.0`).Scan(&score)
	if err != nil {
		t.Fatalf("querying nullable score: %v", err)
	}
	if score != nil {
		t.Errorf("empty score = %v, want NULL", *score)
	}

	// ISO-8859-1 text must arrive decoded to UTF-8.
	var city string
	err = pool.QueryRow(ctx, `SELECT "NO_MUNICIPIO_ESC" FROM participants WHERE "NU_INSCRICAO" = 210002`).Scan(&city)
	if err != nil {
		t.Fatalf("querying municipality: %v", err)
	}
	if city != "São Gonçalo" {
		t.Errorf("municipality = %q, want %q", city, "São Gonçalo")
	}
}

func TestETL_EnsureLoaded_SecondRunSkips(t *testing.T) {
	connString := dbtest.RequireDatabase(t)
	ctx := context.Background()

	testDB := "enemgap_etl_idempotent"
	cleanup := dbtest.CreateTestDB(t, connString, testDB)
	t.Cleanup(cleanup)
	pool := dbtest.GetTestPool(t, connString, testDB)

	participantsFile, resultsFile := writeTestDataset(t)
	config := enemgap.PipelineConfig{
		ParticipantsTable: "participants",
		ResultsTable:      "results",
		ParticipantsFile:  participantsFile,
		ResultsFile:       resultsFile,
	}

	orchestrator := newTestOrchestrator(10)
	if _, err := orchestrator.EnsureLoaded(ctx, pool, config); err != nil {
		t.Fatalf("first EnsureLoaded failed: %v", err)
	}

	// A sentinel row proves the second run leaves existing tables alone.
	_, err := pool.Exec(ctx,
		`INSERT INTO participants ("NU_INSCRICAO", "Q006", "NO_MUNICIPIO_ESC") VALUES (999999, 'Z', 'sentinel')`)
	if err != nil {
		t.Fatalf("inserting sentinel row: %v", err)
	}

	report, err := orchestrator.EnsureLoaded(ctx, pool, config)
	if err != nil {
		t.Fatalf("second EnsureLoaded failed: %v", err)
	}
	if !report.Skipped() {
		t.Errorf("report = %+v, want a skipped load", report)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM participants WHERE "Q006" = 'Z'`).Scan(&count); err != nil {
		t.Fatalf("counting sentinel rows: %v", err)
	}
	if count != 1 {
		t.Errorf("sentinel row count = %d, want 1 (table was reloaded)", count)
	}
}
