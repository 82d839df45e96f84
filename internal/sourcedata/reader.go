// Package sourcedata reads ENEM microdata CSV files: semicolon-delimited,
// ISO-8859-1 encoded, one header row. Values are decoded to UTF-8 before
// they leave this package.
package sourcedata

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/transform"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Opener opens microdata files with the configured decoding behavior.
type Opener struct {
	detectEncoding bool
	logger         enemgap.Logger
}

// NewOpener creates an Opener. When detectEncoding is true the head of each
// file is sampled and the detected charset used if confident; otherwise the
// default ISO-8859-1 is assumed.
//
// Panics if logger is nil (programmer error).
func NewOpener(detectEncoding bool, logger enemgap.Logger) *Opener {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Opener{
		detectEncoding: detectEncoding,
		logger:         logger,
	}
}

// File is an open microdata CSV positioned after its header row.
type File struct {
	f        *os.File
	r        *csv.Reader
	header   []string
	encoding string
}

// Open opens path, resolves its encoding, and reads the header row.
// A nonexistent path yields enemgap.ErrInputFileMissing before any other
// work, so callers can rely on no side effects having happened.
func (o *Opener) Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("source file %q: %w", path, enemgap.ErrInputFileMissing)
		}
		return nil, fmt.Errorf("source file %q: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}

	encName := enemgap.DefaultSourceEncoding
	if o.detectEncoding {
		encName, err = detectEncoding(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		o.logger.Verbose("using encoding %s for %s", encName, path)
	}

	enc, err := encodingFor(encName)
	if err != nil {
		f.Close()
		return nil, err
	}

	var r io.Reader = f
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	// A UTF-8 byte order mark would otherwise end up glued to the first
	// header name.
	br := bufio.NewReaderSize(r, 64*1024)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("source file %q is empty", path)
		}
		return nil, fmt.Errorf("reading header of %q: %w", path, err)
	}
	if err := validateHeader(path, header); err != nil {
		f.Close()
		return nil, err
	}

	return &File{f: f, r: cr, header: header, encoding: encName}, nil
}

func validateHeader(path string, header []string) error {
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		if name == "" {
			return fmt.Errorf("source file %q: empty name for column %d", path, i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("source file %q: duplicate column %q", path, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Header returns the column names from the header row.
func (f *File) Header() []string {
	return f.header
}

// Encoding returns the charset name the file is being decoded from.
func (f *File) Encoding() string {
	return f.encoding
}

// ReadBatch reads up to n data rows. It returns io.EOF only when no rows
// remain at all; a short final batch is returned with a nil error and the
// NEXT call reports io.EOF.
func (f *File) ReadBatch(n int) ([][]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", n)
	}

	var rows [][]string
	for len(rows) < n {
		record, err := f.r.Read()
		if err == io.EOF {
			if len(rows) == 0 {
				return nil, io.EOF
			}
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", f.f.Name(), err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// ReadColumn reads a single named column from the file at path into memory.
// Used for the registration number column, which is assumed to fit.
func (o *Opener) ReadColumn(path, column string) ([]string, error) {
	f, err := o.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx := -1
	for i, name := range f.Header() {
		if name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in %q", column, path)
	}

	var values []string
	for {
		record, err := f.r.Read()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		values = append(values, record[idx])
	}
}

// CountDataRows counts the data rows (excluding the header) in the file at
// path without keeping them in memory.
func (o *Opener) CountDataRows(path string) (int, error) {
	f, err := o.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	for {
		if _, err := f.r.Read(); err != nil {
			if err == io.EOF {
				return count, nil
			}
			return 0, fmt.Errorf("reading %q: %w", path, err)
		}
		count++
	}
}
