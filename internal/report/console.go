package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// Color palette - keeping it minimal and accessible.
var (
	colorPrimary = lipgloss.Color("39")  // Blue
	colorSuccess = lipgloss.Color("34")  // Green
	colorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// StyledOutput determines whether stdout should receive styled output.
//
// Returns false if:
//   - ENEMGAP_PLAIN=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - stdout is not a terminal (piped or redirected output)
func StyledOutput() bool {
	if os.Getenv("ENEMGAP_PLAIN") == "1" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Console renders the run banner and the completion summary to the
// terminal, falling back to plain text when stdout is not one.
type Console struct {
	out    io.Writer
	styled bool
}

// NewConsole creates a Console on stdout with automatic style detection.
func NewConsole() *Console {
	return &Console{out: os.Stdout, styled: StyledOutput()}
}

// NewConsoleWriter creates a Console on an explicit writer, mainly for
// tests.
func NewConsoleWriter(out io.Writer, styled bool) *Console {
	return &Console{out: out, styled: styled}
}

func (c *Console) render(style lipgloss.Style, s string) string {
	if !c.styled {
		return s
	}
	return style.Render(s)
}

// Banner prints the run header.
func (c *Console) Banner(version string) {
	title := fmt.Sprintf("ENEM income-gap analysis  ·  enemgap %s", version)
	if c.styled {
		fmt.Fprintln(c.out, bannerStyle.Render(title))
		return
	}
	rule := "================================================================"
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out, title)
	fmt.Fprintln(c.out, rule)
}

// Summary prints the completion report for a successful run.
func (c *Console) Summary(summary enemgap.RunSummary) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.render(successStyle, "✓ Analysis complete"))

	dropped := summary.RowsExtracted - summary.RowsRetained
	lines := []struct{ label, value string }{
		{"Run ID", summary.RunID},
		{"Duration", fmt.Sprintf("%.2fs", summary.Duration().Seconds())},
		{"Rows analyzed", fmt.Sprintf("%d (%d extracted, %d dropped for missing scores)",
			summary.RowsRetained, summary.RowsExtracted, dropped)},
		{"Data load", loadLine(summary.LoadsSkipped)},
		{"Output directory", summary.OutputDir},
	}
	for _, line := range lines {
		fmt.Fprintf(c.out, "%s %s\n", c.render(labelStyle, line.label+":"), line.value)
	}

	for _, name := range summary.OutputFiles {
		fmt.Fprintf(c.out, "  %s %s\n", c.render(labelStyle, "•"), name)
	}
}

func loadLine(skipped bool) string {
	if skipped {
		return "skipped (tables already loaded)"
	}
	return "performed"
}
