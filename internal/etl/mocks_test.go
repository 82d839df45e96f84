package etl

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

type copyCall struct {
	table   string
	columns []string
	rows    [][]any
}

// mockConn records DDL and COPY traffic instead of talking to a server.
type mockConn struct {
	execSQL []string
	execErr error
	copies  []copyCall
	copyErr error
}

func (m *mockConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	m.execSQL = append(m.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (m *mockConn) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("mockConn: Query not supported")
}

func (m *mockConn) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return &fakeRow{err: errors.New("mockConn: QueryRow not supported")}
}

func (m *mockConn) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if m.copyErr != nil {
		return 0, m.copyErr
	}

	call := copyCall{table: table.Sanitize(), columns: columns}
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return int64(len(call.rows)), err
		}
		call.rows = append(call.rows, values)
	}
	if err := src.Err(); err != nil {
		return int64(len(call.rows)), err
	}

	m.copies = append(m.copies, call)
	return int64(len(call.rows)), nil
}

// totalCopiedRows sums the rows across all recorded COPY calls.
func (m *mockConn) totalCopiedRows() int {
	n := 0
	for _, c := range m.copies {
		n += len(c.rows)
	}
	return n
}

type fakeRow struct {
	err error
}

func (r *fakeRow) Scan(_ ...any) error { return r.err }

// mockCatalog answers existence queries from a fixed map.
type mockCatalog struct {
	exists map[string]bool
	err    error
}

func (m *mockCatalog) TableExists(_ context.Context, _ enemgap.DBConnection, tableName string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.exists[tableName], nil
}

// loadCall records one loader invocation, shared between the two loader
// mocks so tests can assert relative ordering.
type loadCall struct {
	loader string
	table  string
}

type mockBulkLoader struct {
	calls *[]loadCall
	rows  int64
	err   error
}

func (m *mockBulkLoader) Load(_ context.Context, _ enemgap.DBConnection, tableName, _ string) (int64, error) {
	*m.calls = append(*m.calls, loadCall{loader: "bulk", table: tableName})
	return m.rows, m.err
}

type mockJoinLoader struct {
	calls *[]loadCall
	rows  int64
	err   error
}

func (m *mockJoinLoader) Load(_ context.Context, _ enemgap.DBConnection, tableName, _, _ string) (int64, error) {
	*m.calls = append(*m.calls, loadCall{loader: "join", table: tableName})
	return m.rows, m.err
}

type nullLogger struct{}

func (nullLogger) Verbose(_ string, _ ...interface{}) {}
func (nullLogger) Info(_ string, _ ...interface{})    {}
func (nullLogger) Error(_ string, _ ...interface{})   {}

var _ enemgap.DBConnection = (*mockConn)(nil)
