// # internal/ui/report/summary.go
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"autoinject/internal/core/app"
	"autoinject/internal/engine/inject"
	"autoinject/internal/shared/util"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	itemStyle = lipgloss.NewStyle().MarginLeft(4)
)

// Summary renders a build run for the terminal. Paths are shown relative to
// root when possible; verbose adds one line per rewritten file.
func Summary(s *app.BuildSummary, root string, verbose bool) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render("autoinject"))
	b.WriteString(" ")
	b.WriteString(statusStyle.Render("run " + s.RunID))
	b.WriteString("\n")

	counts := []string{
		fmt.Sprintf("%d files", len(s.Files)),
		successStyle.Render(fmt.Sprintf("%d rewritten", s.Rewritten)),
		fmt.Sprintf("%d unchanged", s.Unchanged),
		fmt.Sprintf("%d skipped", s.Skipped),
	}
	if s.Warned > 0 {
		counts = append(counts, warnStyle.Render(fmt.Sprintf("%d warned", s.Warned)))
	}
	if s.Failed > 0 {
		counts = append(counts, errorStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	line := strings.Join(counts, "  ")
	if s.Cached > 0 {
		line += statusStyle.Render(fmt.Sprintf("  (%d cached)", s.Cached))
	}
	line += statusStyle.Render(fmt.Sprintf("  in %s", s.Duration.Round(time.Millisecond)))
	b.WriteString(sectionStyle.Render(line))
	b.WriteString("\n")

	if s.Imports > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%d imports injected", s.Imports)))
		b.WriteString("\n")
	}
	if len(s.Modules) > 0 {
		b.WriteString(sectionStyle.Render("modules"))
		b.WriteString("\n")
		for _, module := range util.SortedStringKeys(s.Modules) {
			b.WriteString(itemStyle.Render(fmt.Sprintf("%s %d", module, s.Modules[module])))
			b.WriteString("\n")
		}
	}

	var warnings, failures, rewritten []string
	for _, f := range s.Files {
		rel := relative(root, f.Path)
		switch {
		case f.Err != nil:
			failures = append(failures, fmt.Sprintf("%s: %v", rel, f.Err))
		case f.Warning != "":
			warnings = append(warnings, f.Warning)
		case f.Status == inject.StatusRewritten && verbose:
			rewritten = append(rewritten, fmt.Sprintf("%s +%d", rel, len(f.Imports)))
		}
	}
	writeSection(&b, "warnings", warnStyle, warnings)
	writeSection(&b, "errors", errorStyle, failures)
	writeSection(&b, "rewritten", successStyle, rewritten)

	return b.String()
}

func writeSection(b *strings.Builder, title string, style lipgloss.Style, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render(style.Render(title)))
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(itemStyle.Render(line))
		b.WriteString("\n")
	}
}

func relative(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
