package sourcedata

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brmicrodata/enemgap/internal/logging"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

func writeTempCSV(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func testOpener() *Opener {
	return NewOpener(false, logging.NewNullLogger())
}

func TestOpen_DecodesISO88591(t *testing.T) {
	// "São Paulo" and "declaração" with Latin-1 single-byte accents.
	raw := []byte("NU_INSCRICAO;NO_MUNICIPIO;DS_OBS\n" +
		"210001;S\xe3o Paulo;declara\xe7\xe3o\n")
	path := writeTempCSV(t, "latin1.csv", raw)

	f, err := testOpener().Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"NU_INSCRICAO", "NO_MUNICIPIO", "DS_OBS"}, f.Header())
	assert.Equal(t, "ISO-8859-1", f.Encoding())

	rows, err := f.ReadBatch(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"210001", "São Paulo", "declaração"}, rows[0])
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := testOpener().Open(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, enemgap.ErrInputFileMissing),
		"expected ErrInputFileMissing, got: %v", err)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := writeTempCSV(t, "empty.csv", nil)
	_, err := testOpener().Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestOpen_RejectsDuplicateColumns(t *testing.T) {
	path := writeTempCSV(t, "dup.csv", []byte("A;B;A\n1;2;3\n"))
	_, err := testOpener().Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestOpen_RejectsEmptyColumnName(t *testing.T) {
	path := writeTempCSV(t, "blank.csv", []byte("A;;C\n1;2;3\n"))
	_, err := testOpener().Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty name")
}

func TestReadBatch_BatchBoundaries(t *testing.T) {
	path := writeTempCSV(t, "five.csv", []byte("N\n1\n2\n3\n4\n5\n"))

	f, err := testOpener().Open(path)
	require.NoError(t, err)
	defer f.Close()

	first, err := f.ReadBatch(2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {"2"}}, first)

	second, err := f.ReadBatch(2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"3"}, {"4"}}, second)

	// Short final batch comes back without an error.
	third, err := f.ReadBatch(2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"5"}}, third)

	_, err = f.ReadBatch(2)
	assert.Equal(t, io.EOF, err)
}

func TestReadBatch_RejectsNonPositiveSize(t *testing.T) {
	path := writeTempCSV(t, "one.csv", []byte("N\n1\n"))

	f, err := testOpener().Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadBatch(0)
	require.Error(t, err)
}

func TestReadBatch_InconsistentFieldCount(t *testing.T) {
	path := writeTempCSV(t, "ragged.csv", []byte("A;B\n1;2\n3\n"))

	f, err := testOpener().Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadBatch(10)
	require.Error(t, err)
}

func TestReadColumn(t *testing.T) {
	path := writeTempCSV(t, "col.csv",
		[]byte("NU_INSCRICAO;TP_SEXO\n210001;F\n210002;M\n210003;F\n"))

	values, err := testOpener().ReadColumn(path, "NU_INSCRICAO")
	require.NoError(t, err)
	assert.Equal(t, []string{"210001", "210002", "210003"}, values)
}

func TestReadColumn_UnknownColumn(t *testing.T) {
	path := writeTempCSV(t, "col.csv", []byte("A;B\n1;2\n"))

	_, err := testOpener().ReadColumn(path, "NU_INSCRICAO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCountDataRows(t *testing.T) {
	path := writeTempCSV(t, "count.csv", []byte("A;B\n1;2\n3;4\n5;6\n"))

	n, err := testOpener().CountDataRows(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountDataRows_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "header_only.csv", []byte("A;B\n"))

	n, err := testOpener().CountDataRows(path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpen_DetectsUTF8WithBOM(t *testing.T) {
	// A BOM plus multibyte text is the detector's most confident case; the
	// BOM must not leak into the first header name.
	raw := append([]byte{0xEF, 0xBB, 0xBF},
		[]byte("NU_INSCRICAO;NO_MUNICIPIO\n210001;São João da Boa Vista, município de educação\n")...)
	path := writeTempCSV(t, "utf8bom.csv", raw)

	f, err := NewOpener(true, logging.NewNullLogger()).Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "NU_INSCRICAO", f.Header()[0])

	rows, err := f.ReadBatch(1)
	require.NoError(t, err)
	assert.Contains(t, rows[0][1], "São João")
}

func TestEncodingFor(t *testing.T) {
	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"UTF-8", true, false},
		{"ISO-8859-1", false, false},
		{"windows-1252", false, false},
		{"Shift_JIS", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := encodingFor(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, enc == nil)
		})
	}
}

func TestDetectEncoding_EmptyFileDefaults(t *testing.T) {
	path := writeTempCSV(t, "empty.csv", nil)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	name, err := detectEncoding(f)
	require.NoError(t, err)
	assert.Equal(t, enemgap.DefaultSourceEncoding, name)
}
