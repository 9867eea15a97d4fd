package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

// View implements tea.Model
func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	var content string
	switch m.Mode {
	case ViewList:
		content = m.renderListView()
	case ViewDetail:
		content = m.renderDetailView()
	}
	return AppStyle.Render(content)
}

func (m Model) renderListView() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s Branch Comparison Results", IconMerge)))
	b.WriteString("\n\n")
	b.WriteString(m.renderCounts())
	b.WriteString("\n\n")

	listPanel := PanelStyle.Width(m.Width - 6).Render(m.renderItemList())
	b.WriteString(listPanel)
	b.WriteString("\n")
	b.WriteString(m.renderListHelp())

	return b.String()
}

func (m Model) renderCounts() string {
	var files, semantic, conflicted int
	for _, it := range m.all {
		if it.Change == nil {
			continue
		}
		files++
		if it.Change.HasConflict {
			conflicted++
		}
		if it.Change.HasSemanticChange {
			semantic++
		}
	}
	text := fmt.Sprintf("%d file(s): %d semantic, %d formatting only, %d conflicted",
		files, semantic, files-semantic, conflicted)
	if m.SemanticOnly {
		text += SemanticStyle.Render("  [semantic only]")
	}
	return text
}

func (m Model) renderItemList() string {
	if len(m.Items) == 0 {
		return DimTextStyle.Render("Nothing to show")
	}

	var b strings.Builder

	visibleHeight := max(m.Height-16, 5)
	start := 0
	if m.CurrentIndex >= visibleHeight {
		start = m.CurrentIndex - visibleHeight + 1
	}
	end := min(start+visibleHeight, len(m.Items))

	for i := start; i < end; i++ {
		it := m.Items[i]
		isSelected := i == m.CurrentIndex

		var line strings.Builder
		if isSelected {
			line.WriteString(IconArrowRight)
		} else {
			line.WriteString("  ")
		}
		line.WriteString(IconFile)
		line.WriteString(fmt.Sprintf("%-30s", truncate(it.Title(), 30)))
		line.WriteString(" ")
		line.WriteString(PairStyle.Render(fmt.Sprintf("%-24s", truncate(it.Pair, 24))))
		line.WriteString(" ")
		line.WriteString(badge(it))

		lineStr := line.String()
		if isSelected {
			lineStr = SelectedItemStyle.Width(m.Width - 10).Render(lineStr)
		} else {
			lineStr = ItemStyle.Render(lineStr)
		}
		b.WriteString(lineStr)
		b.WriteString("\n")
	}

	if len(m.Items) > visibleHeight {
		b.WriteString(DimTextStyle.Render(fmt.Sprintf("\n  %d-%d of %d", start+1, end, len(m.Items))))
	}
	return b.String()
}

// badge renders the classification of an item.
func badge(it Item) string {
	switch {
	case it.Change == nil && it.Status == model.StatusError:
		return ConflictStyle.Render(IconCross + "ERROR")
	case it.Change == nil:
		return DimTextStyle.Render("NO CHANGES")
	case it.Change.HasConflict:
		return ConflictStyle.Render(IconWarning + "CONFLICT")
	case it.Change.HasSemanticChange:
		return SemanticStyle.Render("SEMANTIC")
	default:
		return CosmeticStyle.Render(IconCheck + "FORMATTING")
	}
}

func (m Model) renderListHelp() string {
	parts := []string{
		fmt.Sprintf("%s navigate", HelpKeyStyle.Render("↑↓/jk")),
		fmt.Sprintf("%s details", HelpKeyStyle.Render("enter")),
		fmt.Sprintf("%s semantic only", HelpKeyStyle.Render("s")),
		fmt.Sprintf("%s quit", HelpKeyStyle.Render("q")),
	}
	return HelpStyle.Render(strings.Join(parts, "  "))
}

func (m Model) renderDetailView() string {
	it, ok := m.current()
	if !ok {
		return m.renderListView()
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s %s", IconMerge, it.Title())))
	b.WriteString("\n")
	b.WriteString(PairStyle.Render(it.Pair))
	b.WriteString("  ")
	b.WriteString(badge(it))
	if c := it.Change; c != nil {
		b.WriteString("  ")
		b.WriteString(DimTextStyle.Render(c.Differencer))
		if c.Summary != nil {
			b.WriteString(DimTextStyle.Render(fmt.Sprintf("  +%d/-%d", c.Summary.Additions, c.Summary.Deletions)))
		}
		if n := len(c.Detailed.Conflicts); n > 0 {
			b.WriteString(DimTextStyle.Render(fmt.Sprintf("  conflict %d of %d", m.Fragment+1, n)))
		}
	}
	b.WriteString("\n\n")

	width := m.panelWidth()
	var panels []string
	for i := range m.Viewports {
		if i > 0 {
			panels = append(panels, "  ")
		}
		panels = append(panels, m.renderPanel(Panel(i), width))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	b.WriteString("\n")
	b.WriteString(m.renderDetailHelp())

	return b.String()
}

func (m Model) renderPanel(panel Panel, width int) string {
	vp := m.Viewports[panel]
	title := PanelTitleStyle.Width(width - 2).Render(m.titles[panel])

	style := PanelStyle
	if panel == m.FocusedPanel {
		style = FocusedPanelStyle
	}
	return style.Width(width).Height(vp.Height + 2).Render(title + "\n" + vp.View())
}

func (m Model) renderDetailHelp() string {
	parts := []string{
		fmt.Sprintf("%s switch panel", HelpKeyStyle.Render("tab/←→")),
		fmt.Sprintf("%s scroll", HelpKeyStyle.Render("↑↓/jk")),
	}
	if len(m.fragments()) > 1 {
		parts = append(parts, fmt.Sprintf("%s conflict", HelpKeyStyle.Render("n/p")))
	}
	parts = append(parts, fmt.Sprintf("%s back", HelpKeyStyle.Render("esc")))
	return HelpStyle.Render(strings.Join(parts, "  "))
}
