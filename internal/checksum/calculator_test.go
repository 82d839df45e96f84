package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSHA256_Raw(t *testing.T) {
	calc := New()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "empty content",
			content:  "",
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "known vector",
			content:  "abc",
			expected: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.Raw([]byte(tc.content))
			if got != tc.expected {
				t.Errorf("Raw(%q) = %s, want %s", tc.content, got, tc.expected)
			}
		})
	}
}

func TestSHA256_Raw_Deterministic(t *testing.T) {
	calc := New()
	content := []byte("NU_INSCRICAO;NU_NOTA_CN\n210001;512.3\n")

	first := calc.Raw(content)
	second := calc.Raw(content)
	if first != second {
		t.Errorf("Raw() is not deterministic: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("Raw() returned hash of length %d, expected 64", len(first))
	}
}

func TestSHA256_File(t *testing.T) {
	calc := New()
	content := "NU_INSCRICAO;TP_ESCOLA\n210001;2\n210002;3\n"

	path := filepath.Join(t.TempDir(), "participants.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, size, err := calc.File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if want := calc.Raw([]byte(content)); sum != want {
		t.Errorf("File() = %s, want %s (same content hashed in memory)", sum, want)
	}
	if size != int64(len(content)) {
		t.Errorf("File() size = %d, want %d", size, len(content))
	}
}

func TestSHA256_File_Missing(t *testing.T) {
	calc := New()

	_, _, err := calc.File(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("File() should fail for a missing file")
	}
	if !strings.Contains(err.Error(), "nope.csv") {
		t.Errorf("error should name the file, got: %v", err)
	}
}
