// Package etl loads the ENEM microdata CSV files into PostgreSQL.
//
// Three pieces cooperate:
//
//   - BulkLoadService streams one CSV into one table in fixed-size batches,
//     replacing the table on the first batch and appending afterwards.
//   - JoinLoadService builds the result table by attaching the participant
//     file's registration-number column to the result rows by row order,
//     after validating that both files agree on the row count.
//   - Orchestrator consults the system catalog and runs only the loaders
//     whose target tables are missing, making the ETL stage idempotent at
//     table granularity.
//
// Each batch is written with COPY and commits on its own; there is no
// transaction spanning a whole load. A load that dies midway leaves a
// partially filled table behind, and because the orchestrator checks only
// existence, the next run will not repair it. Dropping the table forces a
// clean reload.
package etl
