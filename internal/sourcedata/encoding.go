package sourcedata

import (
	"fmt"
	"io"
	"os"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// encodingFor resolves a charset name to a decoder. A nil encoding means
// the bytes are already UTF-8 and need no transformation.
func encodingFor(name string) (encoding.Encoding, error) {
	switch name {
	case "UTF-8", "UTF8", "utf-8":
		return nil, nil
	case "ISO-8859-1", "ISO8859-1", "latin1", "Latin-1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-15":
		return charmap.ISO8859_15, nil
	case "windows-1252", "Windows-1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported source encoding %q", name)
	}
}

// detectEncoding samples the head of the file and asks the charset detector
// for its best guess. Low-confidence guesses and charsets this package
// cannot decode fall back to the default microdata encoding; detection is a
// convenience, never a hard failure.
func detectEncoding(f *os.File) (string, error) {
	sample := make([]byte, enemgap.EncodingSampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("sampling %s: %w", f.Name(), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding %s after sampling: %w", f.Name(), err)
	}
	if n == 0 {
		return enemgap.DefaultSourceEncoding, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(sample[:n])
	if err != nil {
		return enemgap.DefaultSourceEncoding, nil
	}
	if float64(result.Confidence)/100 < enemgap.EncodingMinConfidence {
		return enemgap.DefaultSourceEncoding, nil
	}
	if _, err := encodingFor(result.Charset); err != nil {
		return enemgap.DefaultSourceEncoding, nil
	}
	return result.Charset, nil
}
