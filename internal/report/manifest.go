package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// ManifestName is the run manifest file name.
const ManifestName = "manifest.json"

// manifest is the JSON shape written for each run.
type manifest struct {
	RunID           string           `json:"run_id"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	RowsExtracted   int              `json:"rows_extracted"`
	RowsRetained    int              `json:"rows_retained"`
	LoadsSkipped    bool             `json:"loads_skipped"`
	SourceFiles     []manifestSource `json:"source_files"`
	OutputFiles     []string         `json:"output_files"`
}

// manifestSource fingerprints one ingested source file.
type manifestSource struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}

// WriteManifest writes manifest.json into the run's output directory and
// returns the file name. The manifest lists every other artifact, so it is
// written last.
func WriteManifest(summary enemgap.RunSummary) (string, error) {
	m := manifest{
		RunID:           summary.RunID,
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
		DurationSeconds: summary.Duration().Seconds(),
		RowsExtracted:   summary.RowsExtracted,
		RowsRetained:    summary.RowsRetained,
		LoadsSkipped:    summary.LoadsSkipped,
		SourceFiles:     make([]manifestSource, 0, len(summary.SourceFiles)),
		OutputFiles:     summary.OutputFiles,
	}
	for _, d := range summary.SourceFiles {
		m.SourceFiles = append(m.SourceFiles, manifestSource{
			Path:   d.Path,
			SHA256: d.SHA256,
			Bytes:  d.Bytes,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encoding manifest: %w", enemgap.ErrReportFailed, err)
	}
	data = append(data, '\n')

	path := filepath.Join(summary.OutputDir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %q: %w", enemgap.ErrReportFailed, path, err)
	}
	return ManifestName, nil
}
