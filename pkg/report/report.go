// Package report renders comparison records as a Markdown document or a
// Jupyter notebook made of Markdown cells. Rendering only reads records; it
// never touches the repository.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/simonkoeck/branchdiff/pkg/differ"
	"github.com/simonkoeck/branchdiff/pkg/model"
	"github.com/simonkoeck/branchdiff/pkg/output"
)

const (
	maxConflictsShown   = 2
	maxConflictChars    = 200
	maxConflictLines    = 50
	maxDiffLines        = 100
	timestampLayout     = "2006-01-02 15:04:05"
	defaultReportHeader = "Git Branch Comparison Report"
)

// Document is a rendered report: an ordered list of Markdown cells.
type Document struct {
	RunID       string
	GeneratedAt time.Time
	Cells       []string
}

// Options control report metadata. Zero values pick a fresh run id and the
// current time.
type Options struct {
	RunID string
	Now   time.Time
}

// Build renders records into a document.
func Build(records []*model.ComparisonRecord, opts Options) *Document {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	b := &builder{doc: &Document{RunID: opts.RunID, GeneratedAt: opts.Now}}
	b.add("# %s\n\n**Generated on:** %s\n\n**Run ID:** `%s`\n\n---",
		defaultReportHeader, opts.Now.Format(timestampLayout), opts.RunID)
	b.tableOfContents(records)
	b.dashboard(records)
	for i, rec := range records {
		b.comparison(rec, i+1)
	}
	return b.doc
}

// Markdown joins the cells into a single Markdown document.
func (d *Document) Markdown() string {
	return strings.Join(d.Cells, "\n\n") + "\n"
}

// Generate writes records in the requested format: "md", "ipynb" or "json".
func Generate(w io.Writer, format string, records []*model.ComparisonRecord, opts Options) error {
	switch format {
	case "json":
		return output.WriteJSON(w, records)
	case "md":
		_, err := io.WriteString(w, Build(records, opts).Markdown())
		return err
	case "ipynb":
		return WriteNotebook(w, Build(records, opts))
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

type builder struct {
	doc *Document
}

func (b *builder) add(format string, args ...any) {
	b.doc.Cells = append(b.doc.Cells, fmt.Sprintf(format, args...))
}

func (b *builder) addRaw(s string) {
	b.doc.Cells = append(b.doc.Cells, s)
}

func (b *builder) tableOfContents(records []*model.ComparisonRecord) {
	var sb strings.Builder
	sb.WriteString("## Table of Contents\n\n")
	sb.WriteString("1. [Summary Dashboard](#summary-dashboard)\n")
	for i, rec := range records {
		fmt.Fprintf(&sb, "%d. [Comparison: %s → %s](#comparison-%d)\n", i+2, rec.FromBranch, rec.ToBranch, i+1)
	}
	b.addRaw(strings.TrimRight(sb.String(), "\n"))
}

func (b *builder) dashboard(records []*model.ComparisonRecord) {
	b.addRaw("## Summary Dashboard\n\n<a id='summary-dashboard'></a>")

	var files, conflicts, errs int
	for _, rec := range records {
		files += len(rec.Changes)
		switch rec.Status {
		case model.StatusConflict:
			conflicts++
		case model.StatusError:
			errs++
		}
	}
	b.add("### Overall Statistics\n\n"+
		"- **Total Comparisons:** %d\n"+
		"- **Total Files Changed:** %d\n"+
		"- **Comparisons with Conflicts:** %d\n"+
		"- **Comparisons with Errors:** %d",
		len(records), files, conflicts, errs)

	var sb strings.Builder
	sb.WriteString("### Comparison Overview\n\n")
	sb.WriteString("| From Branch | To Branch | Status | Files | Semantic | Formatting | Conflicts |\n")
	sb.WriteString("|-------------|-----------|--------|-------|----------|------------|-----------|\n")
	for _, rec := range records {
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %d | %d | %d |\n",
			rec.FromBranch, rec.ToBranch, strings.ToUpper(string(rec.Status)),
			len(rec.Changes), rec.SemanticCount(), rec.CosmeticCount(), rec.ConflictCount())
	}
	b.addRaw(strings.TrimRight(sb.String(), "\n"))
}

func (b *builder) comparison(rec *model.ComparisonRecord, section int) {
	b.add("## Comparison %d: %s → %s\n\n"+
		"<a id='comparison-%d'></a>\n\n"+
		"**Status:** [%s] %s\n\n"+
		"**Files Changed:** %d\n\n"+
		"**Duration:** %s\n\n---",
		section, rec.FromBranch, rec.ToBranch, section,
		strings.ToUpper(string(rec.Status)), rec.Status, len(rec.Changes),
		rec.Duration.Round(time.Millisecond))

	if rec.ErrorMessage != "" {
		b.add("### Error Details\n\n```\n%s\n```", rec.ErrorMessage)
		return
	}
	if len(rec.Changes) == 0 {
		b.addRaw("No file differences: the merge changes nothing.")
		return
	}

	b.filesByType(rec)
	b.changesSummary(rec)
	for _, c := range rec.Changes {
		b.file(c)
	}
}

type typeStats struct {
	count, semantic, formatting, conflicts int
	differencer                            string
}

func (b *builder) filesByType(rec *model.ComparisonRecord) {
	byType := map[string]*typeStats{}
	for _, c := range rec.Changes {
		ft := c.FileType
		if ft == "" {
			ft = "other"
		}
		s, ok := byType[ft]
		if !ok {
			s = &typeStats{}
			byType[ft] = s
		}
		s.count++
		s.differencer = c.Differencer
		if c.HasSemanticChange {
			s.semantic++
		} else {
			s.formatting++
		}
		if c.HasConflict {
			s.conflicts++
		}
	}

	types := make([]string, 0, len(byType))
	for ft := range byType {
		types = append(types, ft)
	}
	sort.Strings(types)

	var sb strings.Builder
	sb.WriteString("### Files by Type\n")
	for _, ft := range types {
		s := byType[ft]
		fmt.Fprintf(&sb, "\n**%s files** (%s)\n", ft, s.differencer)
		fmt.Fprintf(&sb, "- Total: %d\n- Semantic changes: %d\n- Formatting only: %d\n", s.count, s.semantic, s.formatting)
		if s.conflicts > 0 {
			fmt.Fprintf(&sb, "- With conflicts: %d\n", s.conflicts)
		}
	}
	b.addRaw(strings.TrimRight(sb.String(), "\n"))
}

func (b *builder) changesSummary(rec *model.ComparisonRecord) {
	var conflicts, semantic, formatting []*model.ChangeRecord
	for _, c := range rec.Changes {
		switch {
		case c.HasConflict:
			conflicts = append(conflicts, c)
		case c.HasSemanticChange:
			semantic = append(semantic, c)
		default:
			formatting = append(formatting, c)
		}
	}

	var sb strings.Builder
	sb.WriteString("### Changes Summary\n")
	if len(conflicts) > 0 {
		sb.WriteString("\n#### Files with Conflicts\n\n")
		for _, c := range conflicts {
			fmt.Fprintf(&sb, "- **%s** - %s\n", c.FilePath, c.Differencer)
		}
	}
	if len(semantic) > 0 {
		sb.WriteString("\n#### Files with Semantic Changes\n\n")
		for _, c := range semantic {
			add, del := 0, 0
			if c.Summary != nil {
				add, del = c.Summary.Additions, c.Summary.Deletions
			}
			fmt.Fprintf(&sb, "- **%s** - %s (+%d/-%d)\n", c.FilePath, c.Differencer, add, del)
		}
	}
	if len(formatting) > 0 {
		sb.WriteString("\n#### Files with Formatting Changes Only\n\n")
		for _, c := range formatting {
			fmt.Fprintf(&sb, "- **%s** - %s\n", c.FilePath, c.Differencer)
		}
	}
	b.addRaw(strings.TrimRight(sb.String(), "\n"))
}

func changeLabel(c *model.ChangeRecord) string {
	switch {
	case c.HasConflict:
		return "CONFLICT"
	case c.HasSemanticChange:
		return "SEMANTIC"
	default:
		return "FORMATTING"
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func (b *builder) file(c *model.ChangeRecord) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### [%s] %s\n\n", changeLabel(c), c.FilePath)
	fmt.Fprintf(&sb, "- **File Type:** %s\n", c.FileType)
	fmt.Fprintf(&sb, "- **Differencer Used:** %s\n", c.Differencer)
	fmt.Fprintf(&sb, "- **Has Semantic Changes:** %s\n", yesNo(c.HasSemanticChange))
	fmt.Fprintf(&sb, "- **Has Conflicts:** %s\n", yesNo(c.HasConflict))
	if c.Summary != nil {
		fmt.Fprintf(&sb, "- **Lines Added:** %d\n- **Lines Deleted:** %d\n", c.Summary.Additions, c.Summary.Deletions)
	}
	if c.ContentBefore != nil && c.ContentAfter != nil {
		fmt.Fprintf(&sb, "- **Size:** %s → %s\n",
			humanize.Bytes(uint64(len(*c.ContentBefore))), humanize.Bytes(uint64(len(*c.ContentAfter))))
	}
	if c.ErrorMessage != "" {
		fmt.Fprintf(&sb, "- **Error:** %s\n", c.ErrorMessage)
	}
	b.addRaw(strings.TrimRight(sb.String(), "\n"))

	if insights := formatInsights(c); insights != "" {
		b.addRaw("#### Format-Specific Analysis\n\n" + insights)
	}
	if details := detailedAnalysis(c.Detailed); details != "" {
		b.addRaw("#### Detailed Analysis\n\n" + details)
	}
	if c.HasConflict && len(c.Detailed.Conflicts) > 0 {
		b.conflictDetails(c.Detailed.Conflicts)
	}
	b.preview(c)
	b.addRaw("---")
}

func detailedAnalysis(d model.DetailedAnalysis) string {
	var lines []string
	if d.WhitespaceOnly != nil && *d.WhitespaceOnly {
		lines = append(lines, "- **This file contains only whitespace changes**")
	}
	if d.MaskedByWhitespace {
		lines = append(lines, "- **Structure differs although only whitespace changed** (e.g. YAML indentation)")
	}
	if d.MalformedConflicts > 0 {
		lines = append(lines, fmt.Sprintf("- **Unterminated conflict regions:** %d", d.MalformedConflicts))
	}
	return strings.Join(lines, "\n")
}

func (b *builder) conflictDetails(conflicts []model.ConflictFragment) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#### Conflict Details\n\nThis file has %d merge conflict(s).\n", len(conflicts))
	for i, f := range conflicts {
		if i == maxConflictsShown {
			fmt.Fprintf(&sb, "\n*... and %d more conflict(s)*\n", len(conflicts)-maxConflictsShown)
			break
		}
		fmt.Fprintf(&sb, "\n**Conflict %d** (lines %d-%d, similarity %.0f%%):\n\n", i+1, f.StartLine, f.EndLine, f.Similarity*100)
		sb.WriteString("```diff\n<<<<<<< OURS\n")
		sb.WriteString(truncate(f.Ours, maxConflictChars))
		sb.WriteString("\n=======\n")
		sb.WriteString(truncate(f.Theirs, maxConflictChars))
		sb.WriteString("\n>>>>>>> THEIRS\n```\n")
	}
	b.addRaw(strings.TrimRight(sb.String(), "\n"))
}

func (b *builder) preview(c *model.ChangeRecord) {
	if c.HasConflict {
		if c.ConflictContent == "" {
			return
		}
		lines := strings.Split(strings.TrimRight(c.ConflictContent, "\n"), "\n")
		var sb strings.Builder
		sb.WriteString("#### File Content (with conflicts)\n\n```text\n")
		for i, line := range lines {
			if i == maxConflictLines {
				break
			}
			fmt.Fprintf(&sb, "%4d: %s\n", i+1, strings.TrimRight(line, "\r"))
		}
		sb.WriteString("```")
		if len(lines) > maxConflictLines {
			fmt.Fprintf(&sb, "\n\n... (%d more lines)", len(lines)-maxConflictLines)
		}
		b.addRaw(sb.String())
		return
	}

	diff, err := differ.UnifiedDiff(normalizeNewlines(c.Before()), normalizeNewlines(c.After()), "Before", "After")
	if err != nil || diff == "" {
		return
	}
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	shown := lines
	if len(shown) > maxDiffLines {
		shown = shown[:maxDiffLines]
	}
	cell := "#### Change Preview\n\n```diff\n" + strings.Join(shown, "\n") + "\n```"
	if len(lines) > maxDiffLines {
		cell += fmt.Sprintf("\n\n... (%d more lines)", len(lines)-maxDiffLines)
	}
	b.addRaw(cell)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
