// Package scaffold initializes an analysis workspace: the enemgap.yaml
// project file, a documented .env.example, and the data directory the
// source CSVs go into. Templates are embedded, so init works offline.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed all:templates
var templatesFS embed.FS

// templateRoot is the embedded directory the workspace layout comes from.
const templateRoot = "templates/default"

// GetTemplatesFS returns the embedded templates filesystem for testing purposes.
// This allows tests to validate template content without filesystem I/O.
func GetTemplatesFS() embed.FS {
	return templatesFS
}

// Scaffolder writes the workspace layout into a target directory.
type Scaffolder struct {
	verbose bool
}

// NewScaffolder creates a new Scaffolder instance
func NewScaffolder(verbose bool) *Scaffolder {
	return &Scaffolder{
		verbose: verbose,
	}
}

// CreateWorkspace writes the workspace files into targetPath, creating the
// directory when it does not exist. Files already present in the target are
// never overwritten unless force is set; the target may otherwise contain
// anything (initializing next to already-downloaded microdata is fine).
func (s *Scaffolder) CreateWorkspace(projectName, targetPath string, force bool) error {
	if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
		return fmt.Errorf("target path '%s' exists but is not a directory", targetPath)
	}

	if !force {
		conflicts, err := s.findConflicts(targetPath)
		if err != nil {
			return fmt.Errorf("failed to check target directory: %w", err)
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("target directory '%s' already contains: %s\n\nenemgap init never overwrites existing files.\n\nOptions:\n• Re-run with --force to overwrite them\n• Remove the files manually\n• Initialize a different directory", targetPath, strings.Join(conflicts, ", "))
		}
	}

	if err := os.MkdirAll(targetPath, 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	s.logVerbose("Initializing workspace '%s' at %s", projectName, targetPath)

	if err := s.copyTemplateFiles(targetPath, projectName); err != nil {
		return fmt.Errorf("failed to write workspace files: %w", err)
	}

	s.logVerbose("Workspace initialized successfully")
	return nil
}

// findConflicts returns the template-relative paths of files that already
// exist in the target directory, sorted for stable error messages.
func (s *Scaffolder) findConflicts(targetPath string) ([]string, error) {
	var conflicts []string

	err := fs.WalkDir(templatesFS, templateRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(templateRoot, path)
		if err != nil {
			return err
		}

		if _, statErr := os.Stat(filepath.Join(targetPath, relPath)); statErr == nil {
			conflicts = append(conflicts, relPath)
		} else if !os.IsNotExist(statErr) {
			return statErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(conflicts)
	return conflicts, nil
}

// copyTemplateFiles recursively copies the embedded layout into the target
// directory, substituting template variables in every file.
func (s *Scaffolder) copyTemplateFiles(targetPath, projectName string) error {
	return fs.WalkDir(templatesFS, templateRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip the root template directory itself
		if path == templateRoot {
			return nil
		}

		relPath, err := filepath.Rel(templateRoot, path)
		if err != nil {
			return err
		}

		targetFilePath := filepath.Join(targetPath, relPath)

		if d.IsDir() {
			s.logVerbose("Creating directory: %s", relPath)
			return os.MkdirAll(targetFilePath, 0755)
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		processedContent := s.processTemplate(string(content), projectName)

		s.logVerbose("Creating file: %s", relPath)
		if err := os.WriteFile(targetFilePath, []byte(processedContent), 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", targetFilePath, err)
		}

		return nil
	})
}

// processTemplate replaces template variables in content
func (s *Scaffolder) processTemplate(content, projectName string) string {
	content = strings.ReplaceAll(content, "{{PROJECT_NAME}}", projectName)
	return content
}

func (s *Scaffolder) logVerbose(format string, args ...interface{}) {
	if s.verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}

// BuildFileTree renders the directory contents as an ASCII tree rooted at
// the absolute path of rootPath.
func BuildFileTree(rootPath string) (string, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		absPath = rootPath
	}

	var sb strings.Builder
	sb.WriteString(absPath + "/\n")

	if err := writeTreeLevel(&sb, rootPath, ""); err != nil {
		return "", fmt.Errorf("failed to build file tree: %w", err)
	}
	return sb.String(), nil
}

func writeTreeLevel(sb *strings.Builder, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		branch, childPrefix := "├── ", prefix+"│   "
		if i == len(entries)-1 {
			branch, childPrefix = "└── ", prefix+"    "
		}

		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		sb.WriteString(prefix + branch + name + "\n")

		if entry.IsDir() {
			if err := writeTreeLevel(sb, filepath.Join(dir, entry.Name()), childPrefix); err != nil {
				return err
			}
		}
	}
	return nil
}
