package etl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// column is one target-table column with its inferred storage type.
type column struct {
	name    string
	numeric bool
}

func (c column) sqlType() string {
	if c.numeric {
		return "DOUBLE PRECISION"
	}
	return "TEXT"
}

// inferColumns derives the column types from the first batch: a column is
// numeric when every non-empty sampled value parses as a float, TEXT
// otherwise. A column whose sample holds only empty values stays TEXT.
// Only the first batch is sampled; later batches must conform.
func inferColumns(header []string, sample [][]string) []column {
	cols := make([]column, len(header))
	for i, name := range header {
		cols[i] = column{name: name}

		seen := false
		numeric := true
		for _, row := range sample {
			v := row[i]
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
		}
		cols[i].numeric = seen && numeric
	}
	return cols
}

// tableWriter writes row batches into one target table. The first batch
// drops and recreates the table so a load always starts from a clean
// slate, even when a prior run died midway; every later batch appends.
// Each batch is an independent COPY with its own implicit commit.
type tableWriter struct {
	conn    enemgap.DBConnection
	table   string
	header  []string
	cols    []column
	batches int
	rows    int64
}

func newTableWriter(conn enemgap.DBConnection, table string, header []string) *tableWriter {
	return &tableWriter{conn: conn, table: table, header: header}
}

// WriteBatch writes one batch of raw CSV records. On the first call it
// infers the column types from the batch and replaces the target table.
func (w *tableWriter) WriteBatch(ctx context.Context, records [][]string) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	if w.batches == 0 {
		w.cols = inferColumns(w.header, records)
		if err := w.replaceTable(ctx); err != nil {
			return 0, err
		}
	}

	values := make([][]any, len(records))
	for i, record := range records {
		row, err := w.convertRecord(record)
		if err != nil {
			return 0, fmt.Errorf("row %d of batch %d: %w", i+1, w.batches+1, err)
		}
		values[i] = row
	}

	n, err := w.conn.CopyFrom(ctx, pgx.Identifier{w.table}, w.header, pgx.CopyFromRows(values))
	if err != nil {
		return 0, fmt.Errorf("%w: copying batch %d into table %q: %w", enemgap.ErrExecutionFailed, w.batches+1, w.table, err)
	}

	w.batches++
	w.rows += n
	return n, nil
}

// Finalize replaces the target table even when the source held no data
// rows, so an empty file still yields an (empty) table. All columns of an
// empty table are TEXT; there is nothing to sample.
func (w *tableWriter) Finalize(ctx context.Context) error {
	if w.batches > 0 {
		return nil
	}
	w.cols = inferColumns(w.header, nil)
	return w.replaceTable(ctx)
}

func (w *tableWriter) replaceTable(ctx context.Context) error {
	ident := pgx.Identifier{w.table}.Sanitize()

	if _, err := w.conn.Exec(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("%w: dropping table %q: %w", enemgap.ErrExecutionFailed, w.table, err)
	}

	defs := make([]string, len(w.cols))
	for i, col := range w.cols {
		defs[i] = pgx.Identifier{col.name}.Sanitize() + " " + col.sqlType()
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(defs, ", "))
	if _, err := w.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: creating table %q: %w", enemgap.ErrExecutionFailed, w.table, err)
	}
	return nil
}

// convertRecord maps raw CSV fields onto the inferred column types. Empty
// fields become NULL in numeric columns and stay empty strings in text
// columns. A non-numeric value in a column inferred numeric is an error:
// the inference window was the first batch, and the file contradicts it.
func (w *tableWriter) convertRecord(record []string) ([]any, error) {
	if len(record) != len(w.cols) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(w.cols), len(record))
	}

	row := make([]any, len(record))
	for i, v := range record {
		if !w.cols[i].numeric {
			row[i] = v
			continue
		}
		if v == "" {
			row[i] = nil
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q was inferred numeric but holds %q", w.cols[i].name, v)
		}
		row[i] = f
	}
	return row, nil
}
