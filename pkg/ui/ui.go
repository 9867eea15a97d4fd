package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonkoeck/branchdiff/pkg/model"
	"github.com/simonkoeck/branchdiff/pkg/output"
)

// Color palette - Modern Minimalist
var (
	InfoBlue     = lipgloss.Color("#6C9BCF")
	SuccessGreen = lipgloss.Color("#7CB486")
	ErrorRed     = lipgloss.Color("#E07A7A")
	WarningAmber = lipgloss.Color("#D9A648")
	BorderGray   = lipgloss.Color("#4A5568")
	MutedText    = lipgloss.Color("#718096")
	DimText      = lipgloss.Color("#A0AEC0")
)

// Nerd Font icons
const (
	IconInfo    = ""
	IconSuccess = ""
	IconError   = ""
	IconWarning = ""
	IconMerge   = ""
	IconBranch  = ""
	IconStep    = ""
)

var out io.Writer = os.Stdout

// SetOutput redirects console output; nil restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// Styles
var (
	infoStyle = lipgloss.NewStyle().
			Foreground(InfoBlue).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(SuccessGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(ErrorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(WarningAmber).
			Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(DimText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(MutedText)

	headerStyle = lipgloss.NewStyle().
			Foreground(InfoBlue).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderGray)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(InfoBlue).
				Bold(true)

	tableCellStyle = lipgloss.NewStyle().
			Foreground(DimText)

	conflictCellStyle = lipgloss.NewStyle().
				Foreground(WarningAmber)

	errorCellStyle = lipgloss.NewStyle().
			Foreground(ErrorRed)

	successCellStyle = lipgloss.NewStyle().
				Foreground(SuccessGreen)
)

// Info prints an info message with blue icon
func Info(msg string) {
	fmt.Fprintf(out, "%s %s\n", infoStyle.Render(IconInfo), msg)
}

// Success prints a success message with green checkmark
func Success(msg string) {
	fmt.Fprintf(out, "%s %s\n", successStyle.Render(IconSuccess), msg)
}

// Error prints an error message with red X
func Error(msg string) {
	fmt.Fprintf(out, "%s %s\n", errorStyle.Render(IconError), msg)
}

// Warning prints a warning message with amber triangle
func Warning(msg string) {
	fmt.Fprintf(out, "%s %s\n", warningStyle.Render(IconWarning), msg)
}

// Step prints a step indicator with arrow
func Step(msg string) {
	fmt.Fprintf(out, "%s %s\n", stepStyle.Render(IconStep), mutedStyle.Render(msg))
}

// Header prints a styled header box with merge icon
func Header(title string) {
	content := fmt.Sprintf("%s %s", IconMerge, title)
	fmt.Fprintln(out, headerStyle.Render(content))
	fmt.Fprintln(out)
}

// PairList prints the pairs about to be compared.
func PairList(pairs []model.BranchPair) {
	Info(fmt.Sprintf("Branch pairs to compare: %d", len(pairs)))
	for _, p := range pairs {
		Step(fmt.Sprintf("%s %s → %s", IconBranch, p.From, p.To))
	}
}

// ComparisonResult prints the one-line outcome of a single comparison.
func ComparisonResult(rec *model.ComparisonRecord) {
	pair := fmt.Sprintf("%s → %s", rec.FromBranch, rec.ToBranch)
	switch rec.Status {
	case model.StatusError:
		Error(fmt.Sprintf("%s: %s", pair, rec.ErrorMessage))
	case model.StatusConflict:
		Warning(fmt.Sprintf("%s: %d conflicted file(s)", pair, rec.ConflictCount()))
	default:
		Success(fmt.Sprintf("%s: %d file(s), %d semantic, %d formatting only",
			pair, len(rec.Changes), rec.SemanticCount(), rec.CosmeticCount()))
	}
}

// ComparisonTable renders a per-pair overview table.
func ComparisonTable(records []*model.ComparisonRecord) {
	if len(records) == 0 {
		return
	}

	headers := []string{"FROM → TO", "STATUS", "FILES", "SEMANTIC", "FORMATTING", "CONFLICTS"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%s → %s", r.FromBranch, r.ToBranch),
			strings.ToUpper(string(r.Status)),
			fmt.Sprint(len(r.Changes)),
			fmt.Sprint(r.SemanticCount()),
			fmt.Sprint(r.CosmeticCount()),
			fmt.Sprint(r.ConflictCount()),
		})
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// Add padding
	for i := range widths {
		widths[i] += 2
	}

	borderStyle := lipgloss.NewStyle().Foreground(BorderGray)

	// Helper to create horizontal line
	hLine := func(left, mid, right string) string {
		segments := make([]string, len(widths))
		for i, w := range widths {
			segments[i] = strings.Repeat("─", w)
		}
		return borderStyle.Render(left + strings.Join(segments, mid) + right)
	}

	// Helper to pad string
	pad := func(s string, width int) string {
		return " " + s + strings.Repeat(" ", width-lipgloss.Width(s)-1)
	}

	printRow := func(cells []string, style func(col int) lipgloss.Style) {
		var sb strings.Builder
		sb.WriteString(borderStyle.Render("│"))
		for i, cell := range cells {
			sb.WriteString(style(i).Render(pad(cell, widths[i])))
			sb.WriteString(borderStyle.Render("│"))
		}
		fmt.Fprintln(out, sb.String())
	}

	fmt.Fprintln(out, hLine("╭", "┬", "╮"))
	printRow(headers, func(int) lipgloss.Style { return tableHeaderStyle })
	fmt.Fprintln(out, hLine("├", "┼", "┤"))
	for i, row := range rows {
		status := records[i].Status
		printRow(row, func(col int) lipgloss.Style {
			if col != 1 {
				return tableCellStyle
			}
			switch status {
			case model.StatusError:
				return errorCellStyle
			case model.StatusConflict:
				return conflictCellStyle
			default:
				return successCellStyle
			}
		})
	}
	fmt.Fprintln(out, hLine("╰", "┴", "╯"))
}

// Summary prints the run totals.
func Summary(s output.RunSummary) {
	fmt.Fprintln(out)
	msg := fmt.Sprintf("%d comparison(s): %d clean, %d with conflicts, %d failed; %d file(s) changed, %d semantic",
		s.Comparisons, s.Succeeded, s.Conflicted, s.Failed, s.FilesChanged, s.SemanticChanges)
	switch {
	case s.Failed > 0:
		Error(msg)
	case s.Conflicted > 0:
		Warning(msg)
	default:
		Success(msg)
	}
}
