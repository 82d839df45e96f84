package store

import (
	"context"
	"fmt"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

const (
	queryTableExists = "SELECT EXISTS(SELECT 1 FROM pg_catalog.pg_tables WHERE schemaname = 'public' AND tablename = $1)"

	queryServerVersion = "SELECT version()"
)

// Catalog answers system-catalog questions using the DBConnection abstraction.
// Stateless and safe for concurrent use; thread safety depends on the injected DBConnection.
type Catalog struct{}

// NewCatalog creates a new TableCatalog instance.
func NewCatalog() enemgap.TableCatalog {
	return &Catalog{}
}

// TableExists reports whether a table with the given name exists in the
// public schema. Existence says nothing about completeness: a table left
// behind by an interrupted load still counts as existing.
func (c *Catalog) TableExists(ctx context.Context, conn enemgap.DBConnection, tableName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryTableExists, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence of table %q: %w", tableName, err)
	}
	return exists, nil
}

// ServerVersion returns the server's version() string, used as a
// connectivity report at startup.
func ServerVersion(ctx context.Context, conn enemgap.DBConnection) (string, error) {
	var version string
	if err := conn.QueryRow(ctx, queryServerVersion).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}

// Verify Catalog implements the TableCatalog interface at compile time
var _ enemgap.TableCatalog = (*Catalog)(nil)
