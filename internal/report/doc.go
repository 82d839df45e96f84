// Package report renders the run's output artifacts from the in-memory
// analysis table: the flattened CSV, the descriptive statistics, the four
// comparison charts, the run manifest, and the console output. Each
// reporter writes into the run's timestamped output directory and reports
// the file names it created.
package report
