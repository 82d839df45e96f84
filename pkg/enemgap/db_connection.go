package enemgap

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the loaders and the
// extractor need. *pgxpool.Pool satisfies it directly; tests substitute
// recording implementations.
//
// Thread-Safety: Implementations should follow their underlying connection's
// thread-safety guarantees. Connection pool implementations are typically safe
// for concurrent use; this pipeline uses a single connection sequentially.
type DBConnection interface {
	// Exec executes a statement without returning rows (DDL, DELETE, ...).
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Query executes a query returning many rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil row. Errors are deferred until Scan is called.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row

	// CopyFrom performs a PostgreSQL COPY FROM STDIN bulk insert and
	// returns the number of rows written.
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// TableCatalog answers table-existence questions against the system catalog.
// The load orchestrator's branching is driven entirely by these answers.
type TableCatalog interface {
	// TableExists reports whether a table with the given name exists in the
	// public schema of the connected database.
	TableExists(ctx context.Context, conn DBConnection, tableName string) (bool, error)
}
