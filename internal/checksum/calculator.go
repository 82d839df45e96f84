package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// SHA256 computes SHA-256 content fingerprints.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple
// goroutines. Using value semantics eliminates heap allocations.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// Raw computes the SHA-256 of the given content as a lowercase hex string.
func (c SHA256) Raw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// File computes the SHA-256 of the file at path in one streaming pass and
// returns the hex digest together with the number of bytes read.
func (c SHA256) File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %q: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}
