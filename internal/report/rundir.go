package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// CreateRunDir creates the timestamped output directory for one run under
// root and returns its path. An empty root means the working directory.
func CreateRunDir(root string, now time.Time) (string, error) {
	name := enemgap.OutputDirPrefix + now.Format(enemgap.OutputTimestampLayout)
	dir := filepath.Join(root, name)
	if root == "" {
		dir = name
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating output directory %q: %w", enemgap.ErrReportFailed, dir, err)
	}
	return dir, nil
}
