package etl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brmicrodata/enemgap/internal/sourcedata"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// JoinLoadService implements the enemgap.JoinLoader interface. The raw
// result file carries no join key, so the registration number is attached
// by row order: result row i receives registration number i from the
// participant file. Row counts are validated before anything is written;
// identical ordering between the two files remains an assumption the
// loader cannot verify.
//
// Thread-Safety: safe for concurrent Load() calls; all state is per-call.
type JoinLoadService struct {
	opener             *sourcedata.Opener
	logger             enemgap.Logger
	batchSize          int
	registrationColumn string
}

// NewJoinLoadService creates a JoinLoadService. registrationColumn is the
// header name of the registration-number column in the participant file.
//
// Panics if opener or logger is nil (programmer error).
func NewJoinLoadService(opener *sourcedata.Opener, logger enemgap.Logger, batchSize int, registrationColumn string) *JoinLoadService {
	if opener == nil {
		panic("opener cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if batchSize < 1 {
		batchSize = enemgap.DefaultBatchSize
	}
	if registrationColumn == "" {
		registrationColumn = enemgap.DefaultRegistrationColumn
	}
	return &JoinLoadService{
		opener:             opener,
		logger:             logger,
		batchSize:          batchSize,
		registrationColumn: registrationColumn,
	}
}

// Load aligns the result file with the participant file's registration
// numbers and writes the augmented rows into tableName, first batch
// replacing, later batches appending.
//
// Validation order matters: the result file is counted first (a missing
// result file aborts before the participant file is read at all), then
// the registration column is read, and only with both counts equal does
// any write begin.
func (s *JoinLoadService) Load(ctx context.Context, conn enemgap.DBConnection, tableName, participantsFile, resultsFile string) (int64, error) {
	s.logger.Info("Loading table '%s' from %s (attaching %s)", tableName, resultsFile, s.registrationColumn)
	start := time.Now()

	resultCount, err := s.opener.CountDataRows(resultsFile)
	if err != nil {
		return 0, err
	}

	s.logger.Verbose("Reading %s column from %s", s.registrationColumn, participantsFile)
	registrations, err := s.opener.ReadColumn(participantsFile, s.registrationColumn)
	if err != nil {
		return 0, err
	}

	if len(registrations) != resultCount {
		return 0, fmt.Errorf(
			"%w: participant file has %d rows but result file has %d; the files must be row-aligned copies of the same extraction",
			enemgap.ErrRowCountMismatch, len(registrations), resultCount)
	}

	f, err := s.opener.Open(resultsFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	for _, name := range f.Header() {
		if name == s.registrationColumn {
			return 0, fmt.Errorf("result file %q already contains a %q column; refusing to attach a second one",
				resultsFile, s.registrationColumn)
		}
	}
	header := append(append([]string{}, f.Header()...), s.registrationColumn)

	w := newTableWriter(conn, tableName, header)
	offset := 0
	for batch := 1; ; batch++ {
		if err := ctx.Err(); err != nil {
			return w.rows, fmt.Errorf("loading table %q: %w", tableName, err)
		}

		records, err := f.ReadBatch(s.batchSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return w.rows, err
		}

		// The file could have grown between the counting pass and this
		// one; never index past the registrations we aligned against.
		if offset+len(records) > len(registrations) {
			return w.rows, fmt.Errorf(
				"%w: result file %q grew past %d rows while loading",
				enemgap.ErrRowCountMismatch, resultsFile, len(registrations))
		}

		augmented := make([][]string, len(records))
		for i, record := range records {
			augmented[i] = append(append(make([]string, 0, len(record)+1), record...), registrations[offset+i])
		}
		offset += len(records)

		n, err := w.WriteBatch(ctx, augmented)
		if err != nil {
			return w.rows, err
		}
		s.logger.Info("  batch %d: %d rows", batch, n)
	}

	if err := w.Finalize(ctx); err != nil {
		return 0, err
	}

	s.logger.Info("✓ Table '%s' loaded: %d rows in %d batches (%.2fs)",
		tableName, w.rows, w.batches, time.Since(start).Seconds())
	return w.rows, nil
}

// Verify JoinLoadService implements the JoinLoader interface at compile time
var _ enemgap.JoinLoader = (*JoinLoadService)(nil)
