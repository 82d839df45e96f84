package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateRunDir(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)

	dir, err := CreateRunDir(root, now)
	if err != nil {
		t.Fatal(err)
	}
	if want := "enem_analysis_20260821_153000"; filepath.Base(dir) != want {
		t.Errorf("dir name = %q, want %q", filepath.Base(dir), want)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestCreateRunDir_EmptyRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	now := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)

	dir, err := CreateRunDir("", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := "enem_analysis_20260821_153000"; dir != want {
		t.Errorf("dir = %q, want bare name %q", dir, want)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal(err)
	}
}

func TestCreateRunDir_ExistingDirIsReused(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)

	first, err := CreateRunDir(root, now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := CreateRunDir(root, now)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("dirs differ: %q vs %q", first, second)
	}
}
