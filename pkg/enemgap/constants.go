package enemgap

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0   // Pipeline completed successfully
	ExitGeneralError     = 1   // Unknown or unclassified error
	ExitUsageError       = 2   // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3   // Internal panic (unexpected crash)
	ExitConfigError      = 10  // Invalid configuration or parameters
	ExitConnectionError  = 11  // Failed to connect to database
	ExitInputMissing     = 12  // Source CSV file not found
	ExitExecutionFailed  = 13  // SQL load or extraction query failed
	ExitRowCountMismatch = 14  // Participant/result files disagree on row count
	ExitReportFailed     = 15  // Report output could not be written
	ExitInterrupted      = 130 // Run cancelled by SIGINT/SIGTERM (128+2)
)

const (
	// DefaultBatchSize is the number of CSV rows loaded per batch.
	// Each batch is written and committed independently, bounding memory
	// to one batch regardless of source file size.
	DefaultBatchSize = 50_000

	// DefaultRegistrationColumn is the header name of the registration
	// number column in the participant microdata file. The join loader
	// reads this single column and the extractor joins on it.
	DefaultRegistrationColumn = "NU_INSCRICAO"

	// DefaultSourceEncoding is the character encoding of ENEM microdata
	// files as published by INEP.
	DefaultSourceEncoding = "ISO-8859-1"

	// EncodingSampleSize is the number of bytes sampled from a source file
	// when optional encoding detection is enabled.
	EncodingSampleSize = 100 * 1024

	// EncodingMinConfidence is the minimum detector confidence required to
	// accept a detected encoding; below it the default encoding is used.
	EncodingMinConfidence = 0.7

	// OutputDirPrefix is the prefix of the per-run output directory.
	// The full name is OutputDirPrefix + a YYYYMMDD_HHMMSS timestamp.
	OutputDirPrefix = "enem_analysis_"

	// OutputTimestampLayout is the timestamp layout used in output
	// directory names.
	OutputTimestampLayout = "20060102_150405"
)

// Income group labels derived from the Q006 questionnaire bracket code.
// Only brackets A and B participate in the analysis; the mapping is total
// over the filtered domain.
const (
	IncomeGroupNone     = "No income"   // bracket A
	IncomeGroupUpTo1300 = "Up to ~1.3k" // bracket B (roughly one minimum wage)
)

// IncomeGroupForCode maps a Q006 bracket code to its analysis label.
// The second return is false for codes outside the analyzed domain.
func IncomeGroupForCode(code string) (string, bool) {
	switch code {
	case "A":
		return IncomeGroupNone, true
	case "B":
		return IncomeGroupUpTo1300, true
	default:
		return "", false
	}
}
