// Package report is a pure formatting layer over edit.Result: badge text per
// block, aggregate summary, diff preview, and machine-readable encodings.
// It never mutates the result.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"restitch/edit"
)

// Badge returns the short status label shown next to each block.
func Badge(s edit.Status) string {
	switch s {
	case edit.StatusExact:
		return "EXACT"
	case edit.StatusNormalized:
		return "NORM"
	case edit.StatusFuzzy:
		return "FUZZY"
	case edit.StatusLineRange:
		return "RANGE"
	case edit.StatusNotFound:
		return "NOT FOUND"
	}
	return "PENDING"
}

var badgeStyles = map[edit.Status]lipgloss.Style{
	edit.StatusExact:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	edit.StatusNormalized: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	edit.StatusFuzzy:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	edit.StatusLineRange:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	edit.StatusNotFound:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// StyledBadge returns the badge with terminal coloring applied. The
// line-range and not-found styles stand out so the user is warned before
// trusting a low-confidence patch.
func StyledBadge(s edit.Status) string {
	if style, ok := badgeStyles[s]; ok {
		return style.Render(Badge(s))
	}
	return Badge(s)
}

// Summary returns the one-line aggregate for a run.
func Summary(res edit.Result) string {
	return res.StatusMessage
}

// WriteTable renders the per-block outcome table followed by the summary
// line. With color enabled the status column uses styled badges.
func WriteTable(w io.Writer, res edit.Result, color bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Status", "Span", "Conf", "Search"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	for _, b := range res.Applied {
		badge := Badge(b.Outcome.Status)
		if color {
			badge = StyledBadge(b.Outcome.Status)
		}
		table.Append([]string{
			fmt.Sprintf("%d", b.Instruction.OrderIndex+1),
			badge,
			spanCell(b.Outcome),
			confCell(b.Outcome),
			excerpt(b.Instruction.Search),
		})
	}
	table.Render()
	fmt.Fprintln(w, res.StatusMessage)
}

func spanCell(out edit.MatchOutcome) string {
	if !out.HasSpan {
		return "-"
	}
	return fmt.Sprintf("[%d,%d)", out.Span.Start, out.Span.End)
}

func confCell(out edit.MatchOutcome) string {
	if out.Status != edit.StatusFuzzy {
		return "-"
	}
	return fmt.Sprintf("%.2f", out.Confidence)
}

// excerpt shows the first line of the search text, truncated for the table.
func excerpt(s string) string {
	if s == "" {
		return "(insertion)"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	const limit = 40
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

// UnifiedDiff returns a unified diff preview between the original and the
// patched content.
func UnifiedDiff(original, patched, name string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(patched),
		FromFile: name + " (before)",
		ToFile:   name + " (after)",
		Context:  3,
	})
}

// ChangeStats summarizes the byte-level churn between two texts.
func ChangeStats(original, patched string) (added, removed int) {
	dmp := diffmatchpatch.New()
	for _, d := range dmp.DiffMain(original, patched, false) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		}
	}
	return added, removed
}

// WriteJSON encodes the result for machine consumption.
func WriteJSON(w io.Writer, res edit.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteYAML encodes the result as YAML.
func WriteYAML(w io.Writer, res edit.Result) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(res)
}
