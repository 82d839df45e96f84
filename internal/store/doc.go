// Package store establishes and inspects the PostgreSQL side of the
// pipeline: connection resolution from the environment, authenticated pool
// creation (standard credentials or cloud IAM tokens), and system-catalog
// queries.
//
// Connection failures are wrapped with actionable guidance and are
// immediately fatal; the pipeline never retries.
package store
