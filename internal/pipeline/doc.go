// Package pipeline wires the full run together: connect, load the source
// tables if needed, extract the analysis rows, and write the report
// artifacts. One Runner.Run call is one complete pipeline run.
package pipeline
