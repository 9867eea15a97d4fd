// Package tui is an interactive, read-only browser over comparison results.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonkoeck/branchdiff/pkg/differ"
	"github.com/simonkoeck/branchdiff/pkg/model"
)

// Item is one row of the browser: a changed file, or a comparison that
// produced no file records.
type Item struct {
	Pair    string
	Status  model.Status
	Change  *model.ChangeRecord
	Message string
}

// Title is the text shown for the item in the list.
func (it Item) Title() string {
	if it.Change != nil {
		return it.Change.FilePath
	}
	return it.Message
}

// Items flattens records into browser rows, keeping record order.
func Items(records []*model.ComparisonRecord) []Item {
	var items []Item
	for _, rec := range records {
		pair := fmt.Sprintf("%s → %s", rec.FromBranch, rec.ToBranch)
		if len(rec.Changes) == 0 {
			msg := "no changes"
			if rec.Status == model.StatusError {
				msg = rec.ErrorMessage
			}
			items = append(items, Item{Pair: pair, Status: rec.Status, Message: msg})
			continue
		}
		for _, c := range rec.Changes {
			items = append(items, Item{Pair: pair, Status: rec.Status, Change: c})
		}
	}
	return items
}

// View mode
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Panel is one of the three columns of the detail view. For conflicts they
// show base, ours and theirs; for other changes before, diff and after.
type Panel int

const (
	PanelLeft Panel = iota
	PanelMiddle
	PanelRight
)

const panelCount = 3

// Model is the browser state.
type Model struct {
	all []Item

	// Items are the rows currently shown, after filtering.
	Items        []Item
	CurrentIndex int
	// Fragment selects the conflict region shown in the detail view.
	Fragment     int
	SemanticOnly bool

	Mode         ViewMode
	FocusedPanel Panel
	Width        int
	Height       int

	Viewports [panelCount]viewport.Model
	titles    [panelCount]string

	Quit bool
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Tab      key.Binding
	Escape   key.Binding
	Quit     key.Binding
	Next     key.Binding
	Previous key.Binding
	Filter   key.Binding
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next panel"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next conflict"),
	),
	Previous: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "previous conflict"),
	),
	Filter: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "semantic only"),
	),
}

// NewModel creates a browser over items.
func NewModel(items []Item) Model {
	m := Model{
		all:          items,
		Items:        items,
		Mode:         ViewList,
		FocusedPanel: PanelMiddle,
		Width:        80,
		Height:       24,
	}
	for i := range m.Viewports {
		m.Viewports[i] = viewport.New(22, 10)
	}
	m.updateViewportSizes()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.updateViewportSizes()
		if m.Mode == ViewDetail {
			m.updateDetailViewports()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	var cmd tea.Cmd
	if m.Mode == ViewDetail {
		m.Viewports[m.FocusedPanel], cmd = m.Viewports[m.FocusedPanel].Update(msg)
	}
	return m, cmd
}

func (m *Model) panelWidth() int {
	return max((m.Width-12)/panelCount, 10)
}

func (m *Model) updateViewportSizes() {
	height := max(m.Height-14, 3)
	for i := range m.Viewports {
		m.Viewports[i].Width = m.panelWidth() - 2
		m.Viewports[i].Height = height
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		m.Quit = true
		return m, tea.Quit
	}
	switch m.Mode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.CurrentIndex > 0 {
			m.CurrentIndex--
		}

	case key.Matches(msg, keys.Down):
		if m.CurrentIndex < len(m.Items)-1 {
			m.CurrentIndex++
		}

	case key.Matches(msg, keys.Enter):
		if len(m.Items) > 0 {
			m.Mode = ViewDetail
			m.Fragment = 0
			m.FocusedPanel = PanelMiddle
			m.updateDetailViewports()
		}

	case key.Matches(msg, keys.Filter):
		m.SemanticOnly = !m.SemanticOnly
		m.applyFilter()
	}

	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.Mode = ViewList

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Right):
		m.FocusedPanel = (m.FocusedPanel + 1) % panelCount

	case key.Matches(msg, keys.Left):
		m.FocusedPanel = (m.FocusedPanel + panelCount - 1) % panelCount

	case key.Matches(msg, keys.Up):
		m.Viewports[m.FocusedPanel].LineUp(1)

	case key.Matches(msg, keys.Down):
		m.Viewports[m.FocusedPanel].LineDown(1)

	case key.Matches(msg, keys.Next):
		if m.Fragment < len(m.fragments())-1 {
			m.Fragment++
			m.updateDetailViewports()
		}

	case key.Matches(msg, keys.Previous):
		if m.Fragment > 0 {
			m.Fragment--
			m.updateDetailViewports()
		}
	}

	return m, nil
}

// applyFilter rebuilds the visible rows, keeping the selection on the same
// item when it is still shown.
func (m *Model) applyFilter() {
	var selected *Item
	if m.CurrentIndex < len(m.Items) {
		selected = &m.Items[m.CurrentIndex]
	}

	if !m.SemanticOnly {
		m.Items = m.all
	} else {
		m.Items = nil
		for _, it := range m.all {
			if it.Change != nil && (it.Change.HasSemanticChange || it.Change.HasConflict) {
				m.Items = append(m.Items, it)
			}
		}
	}

	m.CurrentIndex = 0
	if selected == nil {
		return
	}
	for i, it := range m.Items {
		if it.Change == selected.Change && it.Pair == selected.Pair && it.Message == selected.Message {
			m.CurrentIndex = i
			return
		}
	}
}

func (m Model) current() (Item, bool) {
	if m.CurrentIndex >= len(m.Items) {
		return Item{}, false
	}
	return m.Items[m.CurrentIndex], true
}

func (m Model) fragments() []model.ConflictFragment {
	it, ok := m.current()
	if !ok || it.Change == nil {
		return nil
	}
	return it.Change.Detailed.Conflicts
}

func (m *Model) updateDetailViewports() {
	it, ok := m.current()
	if !ok {
		return
	}

	var contents [panelCount]string
	m.titles, contents = m.panels(it)
	width := m.Viewports[0].Width
	for i := range m.Viewports {
		m.Viewports[i].SetContent(formatCode(contents[i], width))
		m.Viewports[i].GotoTop()
	}
	// the diff column is pre-styled
	if it.Change != nil && !it.Change.HasConflict {
		m.Viewports[PanelMiddle].SetContent(colorDiff(contents[PanelMiddle], width))
	}
}

func (m Model) panels(it Item) (titles, contents [panelCount]string) {
	c := it.Change
	switch {
	case c == nil:
		titles = [panelCount]string{"", "STATUS", ""}
		contents[PanelMiddle] = it.Message

	case c.HasConflict && len(c.Detailed.Conflicts) > 0:
		frag := c.Detailed.Conflicts[min(m.Fragment, len(c.Detailed.Conflicts)-1)]
		titles = [panelCount]string{IconBase + "BASE", IconOurs + "OURS", IconTheirs + "THEIRS"}
		contents = [panelCount]string{frag.Base, frag.Ours, frag.Theirs}

	case c.HasConflict:
		titles = [panelCount]string{"", IconFile + "CONFLICTED FILE", ""}
		contents[PanelMiddle] = c.ConflictContent
		if c.ErrorMessage != "" {
			contents[PanelMiddle] = c.ErrorMessage
		}

	default:
		titles = [panelCount]string{"BEFORE", IconDiff + "DIFF", "AFTER"}
		diff, err := differ.UnifiedDiff(c.Before(), c.After(), "before", "after")
		if err != nil {
			diff = err.Error()
		}
		if c.ErrorMessage != "" {
			diff = c.ErrorMessage
		}
		contents = [panelCount]string{c.Before(), diff, c.After()}
	}
	return titles, contents
}

// formatCode adds line numbers and cuts lines to width.
func formatCode(content string, width int) string {
	if content == "" {
		return DimTextStyle.Render("(empty)")
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	numWidth := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(LineNumberStyle.Render(fmt.Sprintf("%*d", numWidth, i+1)))
		b.WriteString(" ")
		b.WriteString(CodeStyle.Render(truncate(line, width-numWidth-1)))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// colorDiff styles a unified diff line by line.
func colorDiff(diff string, width int) string {
	if diff == "" {
		return DimTextStyle.Render("(no textual difference)")
	}

	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		line = truncate(line, width)
		switch {
		case strings.HasPrefix(line, "@@"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = HunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = AddedLineStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = RemovedLineStyle.Render(line)
		default:
			lines[i] = CodeStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen < 4 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
