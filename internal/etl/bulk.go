package etl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brmicrodata/enemgap/internal/sourcedata"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// BulkLoadService implements the enemgap.BulkLoader interface: it streams a
// semicolon-delimited microdata file into a table in fixed-size batches.
// Memory stays bounded by one batch regardless of file size.
//
// Thread-Safety: safe for concurrent Load() calls; all state is per-call.
type BulkLoadService struct {
	opener    *sourcedata.Opener
	logger    enemgap.Logger
	batchSize int
}

// NewBulkLoadService creates a BulkLoadService.
//
// Panics if opener or logger is nil (programmer error). A batchSize below 1
// falls back to the default; any size of 1 or more produces identical table
// contents, batching only bounds memory.
func NewBulkLoadService(opener *sourcedata.Opener, logger enemgap.Logger, batchSize int) *BulkLoadService {
	if opener == nil {
		panic("opener cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if batchSize < 1 {
		batchSize = enemgap.DefaultBatchSize
	}
	return &BulkLoadService{
		opener:    opener,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Load streams the file at filePath into tableName. The first batch
// replaces the table, later batches append. A missing file fails with
// enemgap.ErrInputFileMissing before the table is touched, so a reload
// never destroys existing data over a bad path.
func (s *BulkLoadService) Load(ctx context.Context, conn enemgap.DBConnection, tableName, filePath string) (int64, error) {
	s.logger.Info("Loading table '%s' from %s", tableName, filePath)
	start := time.Now()

	f, err := s.opener.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := newTableWriter(conn, tableName, f.Header())
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

		n, err := w.WriteBatch(ctx, records)
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

// Verify BulkLoadService implements the BulkLoader interface at compile time
var _ enemgap.BulkLoader = (*BulkLoadService)(nil)
