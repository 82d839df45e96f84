package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type scanRow struct {
	vals []any
	err  error
}

func (r *scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.vals) {
			break
		}
		switch out := d.(type) {
		case *bool:
			out2, ok := r.vals[i].(bool)
			if !ok {
				return errors.New("scanRow: value is not a bool")
			}
			*out = out2
		case *string:
			out2, ok := r.vals[i].(string)
			if !ok {
				return errors.New("scanRow: value is not a string")
			}
			*out = out2
		default:
			return errors.New("scanRow: unsupported destination type")
		}
	}
	return nil
}

type catalogConn struct {
	row     *scanRow
	gotSQL  string
	gotArgs []any
}

func (c *catalogConn) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("catalogConn: Exec not supported")
}

func (c *catalogConn) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("catalogConn: Query not supported")
}

func (c *catalogConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.gotSQL = sql
	c.gotArgs = args
	return c.row
}

func (c *catalogConn) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("catalogConn: CopyFrom not supported")
}

func TestCatalog_TableExists(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{"table present", true},
		{"table absent", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn := &catalogConn{row: &scanRow{vals: []any{tc.exists}}}
			catalog := NewCatalog()

			got, err := catalog.TableExists(context.Background(), conn, "enem_participants")
			if err != nil {
				t.Fatalf("TableExists() error = %v", err)
			}
			if got != tc.exists {
				t.Errorf("TableExists() = %v, want %v", got, tc.exists)
			}
			if len(conn.gotArgs) != 1 || conn.gotArgs[0] != "enem_participants" {
				t.Errorf("query args = %v, want the table name", conn.gotArgs)
			}
			if !strings.Contains(conn.gotSQL, "pg_catalog.pg_tables") {
				t.Errorf("query should consult pg_catalog.pg_tables, got %q", conn.gotSQL)
			}
		})
	}
}

func TestCatalog_TableExists_Error(t *testing.T) {
	conn := &catalogConn{row: &scanRow{err: errors.New("boom")}}
	catalog := NewCatalog()

	_, err := catalog.TableExists(context.Background(), conn, "enem_results")
	if err == nil {
		t.Fatal("TableExists() should propagate scan errors")
	}
	if !strings.Contains(err.Error(), "enem_results") {
		t.Errorf("error should name the table, got: %v", err)
	}
}

func TestServerVersion(t *testing.T) {
	conn := &catalogConn{row: &scanRow{vals: []any{"PostgreSQL 16.3"}}}

	got, err := ServerVersion(context.Background(), conn)
	if err != nil {
		t.Fatalf("ServerVersion() error = %v", err)
	}
	if got != "PostgreSQL 16.3" {
		t.Errorf("ServerVersion() = %q, want %q", got, "PostgreSQL 16.3")
	}
}
