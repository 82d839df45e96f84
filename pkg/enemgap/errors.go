package enemgap

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := runner.Run(ctx, config)
//	if errors.Is(err, enemgap.ErrInputFileMissing) {
//	    // Handle a missing source CSV
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInputFileMissing indicates a required source CSV file was not found.
	ErrInputFileMissing = errors.New("input file missing")

	// ErrExecutionFailed indicates a SQL load or extraction query failed.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrRowCountMismatch indicates the participant and result files do not
	// contain the same number of rows, so positional alignment is unsafe.
	ErrRowCountMismatch = errors.New("row count mismatch")

	// ErrReportFailed indicates a report output could not be written.
	ErrReportFailed = errors.New("report failed")

	// ErrInterrupted indicates the run was cancelled by SIGINT/SIGTERM.
	ErrInterrupted = errors.New("interrupted")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInterrupted):
		return ExitInterrupted
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrInputFileMissing):
		return ExitInputMissing
	case errors.Is(err, ErrRowCountMismatch):
		return ExitRowCountMismatch
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrReportFailed):
		return ExitReportFailed
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	// Cobra reports flag/argument misuse as plain errors; classify the
	// common message shapes as usage errors.
	errStr := err.Error()
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "required flag") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "arg(s), received") {
		return ExitUsageError
	}

	// Check for common connection error patterns
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
