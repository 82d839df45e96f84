package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brmicrodata/enemgap/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:   "init [target_path]",
	Short: "Initialize an analysis workspace",
	Long: `Init sets up a directory for income-gap analysis runs:

- enemgap.yaml with the non-secret run settings (commented defaults)
- .env.example documenting the required environment variables
- data/ directory for the ENEM microdata CSVs
- README with setup instructions

The target defaults to the current directory and is created when missing.
Initializing next to already-downloaded microdata is fine: only the files
init itself writes can conflict, and existing ones are never overwritten
unless --force is given.

Examples:
  enemgap init                  # Initialize the current directory
  enemgap init ./enem-2023      # Initialize a new subdirectory
  enemgap init . --force        # Rewrite the workspace files in place`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite workspace files that already exist in the target")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath := "."
	if len(args) > 0 {
		targetPath = args[0]
	}

	projectName := workspaceName(targetPath)
	verbose := getVerboseFlag(cmd)

	scaffolder := scaffold.NewScaffolder(verbose)
	if err := scaffolder.CreateWorkspace(projectName, targetPath, initForce); err != nil {
		return fmt.Errorf("failed to initialize workspace: %w", err)
	}

	// Display file tree
	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		// Non-fatal - just skip tree display
		fmt.Fprintf(os.Stderr, "\n✓ Workspace '%s' initialized in '%s'\n", projectName, targetPath)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Workspace '%s' initialized\n\n", projectName)
		fmt.Fprintln(os.Stderr, "Created structure:")
		fmt.Fprint(os.Stderr, tree)
	}

	// Next steps
	fmt.Fprintln(os.Stderr, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(os.Stderr, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(os.Stderr, "  cp .env.example .env    # then fill in the database credentials")
	fmt.Fprintln(os.Stderr, "  # Place the ENEM microdata CSVs under data/")
	fmt.Fprintln(os.Stderr, "  enemgap run")

	return nil
}

// workspaceName derives the project name from the target path, falling back
// to the working directory's name for "." style targets.
func workspaceName(targetPath string) string {
	name := filepath.Base(filepath.Clean(targetPath))
	if name != "." && name != ".." && name != string(filepath.Separator) {
		return name
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "enem-analysis"
	}
	return filepath.Base(cwd)
}
