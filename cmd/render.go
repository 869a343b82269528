package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codescope/internal/grep"
	"codescope/internal/rank"
	"codescope/internal/scan"
)

var (
	pathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	hitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))
)

func renderScan(res *scan.Result) string {
	var b strings.Builder
	for _, fc := range res.FileContexts {
		fmt.Fprintln(&b, pathStyle.Render(fc.Path))
		for _, fn := range fc.Functions {
			fmt.Fprintf(&b, "  %s\n", nameStyle.Render(fn.Name))
			if fn.Comment != "" {
				fmt.Fprintln(&b, indent(dimStyle.Render(fn.Comment), 4))
			}
			if fn.Body != "" {
				fmt.Fprintln(&b, indent(fn.Body, 4))
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d files processed, %d with functions",
		res.FilesProcessed, len(res.FileContexts))))
	if res.TimedOut {
		fmt.Fprintln(&b, warnStyle.Render("scan timed out; results are partial"))
	}
	return b.String()
}

func renderSearch(results []grep.FileResult, stats grep.Stats) string {
	var b strings.Builder
	for _, fr := range results {
		fmt.Fprintln(&b, pathStyle.Render(fr.Path))
		for _, m := range fr.Matches {
			fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("line %d", m.LineNumber)))
			for _, line := range strings.Split(m.Context, "\n") {
				if strings.HasPrefix(line, ">>") {
					fmt.Fprintf(&b, "  %s\n", hitStyle.Render(line))
				} else {
					fmt.Fprintf(&b, "  %s\n", line)
				}
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d files scanned, %d matches",
		stats.FilesScanned, stats.TotalMatches)))
	if stats.TimedOut {
		fmt.Fprintln(&b, warnStyle.Render("search timed out; results are partial"))
	}
	return b.String()
}

func renderConcept(matches []rank.Match, analyzed int, seconds float32) string {
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s %s %s\n",
			i+1,
			scoreStyle.Render(fmt.Sprintf("%.3f", m.Similarity)),
			pathStyle.Render(m.File),
			nameStyle.Render(m.Function))
		if m.Body != "" {
			fmt.Fprintln(&b, indent(m.Body, 3))
		}
	}
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d functions analyzed in %.2fs", analyzed, seconds)))
	return b.String()
}

func printDebugLog(lines []string) {
	for _, line := range lines {
		fmt.Println(dimStyle.Render(line))
	}
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
