package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkoeck/branchdiff/pkg/differ"
	"github.com/simonkoeck/branchdiff/pkg/model"
)

func records() []*model.ComparisonRecord {
	clean := model.NewComparisonRecord("development", "master")
	clean.Changes = []*model.ChangeRecord{
		differ.XML().AnalyzeContents("app.xml", `<a x="1" y="2"/>`, `<a y="2" x="1"/>`),
		differ.Generic().AnalyzeContents("README", "hello\n", "hello world\n"),
	}

	conflict := model.NewComparisonRecord("feature", "master")
	conflict.Status = model.StatusConflict
	conflict.Changes = []*model.ChangeRecord{
		differ.Properties().AnalyzeConflictContent("app.properties",
			"<<<<<<< HEAD\nport=80\n=======\nport=8080\n>>>>>>> feature\n"+
				"<<<<<<< HEAD\nhost=a\n=======\nhost=b\n>>>>>>> feature\n"),
	}

	failed := model.NewComparisonRecord("nope", "master")
	failed.Fail("branch 'nope' does not exist")

	return []*model.ComparisonRecord{clean, conflict, failed}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestItems(t *testing.T) {
	items := Items(records())

	require.Len(t, items, 4)
	assert.Equal(t, "app.xml", items[0].Title())
	assert.Equal(t, "development → master", items[0].Pair)
	assert.Equal(t, "app.properties", items[2].Title())
	assert.Nil(t, items[3].Change)
	assert.Equal(t, "branch 'nope' does not exist", items[3].Title())
}

func TestNavigation(t *testing.T) {
	m := NewModel(Items(records()))

	m = press(m, "j", "j", "j", "j")
	assert.Equal(t, 3, m.CurrentIndex, "stops at the last item")

	m = press(m, "k", "k", "k", "k")
	assert.Equal(t, 0, m.CurrentIndex)
}

func TestSemanticFilter(t *testing.T) {
	m := NewModel(Items(records()))
	m = press(m, "j") // README

	m = press(m, "s")
	require.Len(t, m.Items, 2, "formatting-only files and records without changes are hidden")
	assert.Equal(t, "README", m.Items[m.CurrentIndex].Title(), "selection follows the item")

	m = press(m, "s")
	assert.Len(t, m.Items, 4)
	assert.Equal(t, 1, m.CurrentIndex)
}

func TestDetailView_Change(t *testing.T) {
	m := NewModel(Items(records()))
	m = press(m, "j", "enter")

	require.Equal(t, ViewDetail, m.Mode)
	assert.Equal(t, PanelMiddle, m.FocusedPanel)
	view := m.View()
	assert.Contains(t, view, "README")
	assert.Contains(t, view, "DIFF")
	assert.Contains(t, view, "+hello world")

	m = press(m, "tab")
	assert.Equal(t, PanelRight, m.FocusedPanel)
	m = press(m, "h", "h")
	assert.Equal(t, PanelLeft, m.FocusedPanel)

	m = press(m, "esc")
	assert.Equal(t, ViewList, m.Mode)
}

func TestDetailView_ConflictFragments(t *testing.T) {
	m := NewModel(Items(records()))
	m = press(m, "j", "j", "enter")

	assert.Contains(t, m.View(), "conflict 1 of 2")
	assert.Contains(t, m.View(), "port=8080")

	m = press(m, "n", "n")
	assert.Equal(t, 1, m.Fragment, "stops at the last conflict")
	assert.Contains(t, m.View(), "host=b")

	m = press(m, "p")
	assert.Equal(t, 0, m.Fragment)
}

func TestDetailView_ErrorRecord(t *testing.T) {
	m := NewModel(Items(records()))
	m = press(m, "j", "j", "j", "enter")

	assert.Contains(t, m.View(), "ERROR")
	assert.Contains(t, m.View(), "does not exist")
}

func TestQuit(t *testing.T) {
	m := NewModel(Items(records()))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.True(t, next.(Model).Quit)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWindowResize(t *testing.T) {
	m := NewModel(Items(records()))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	m = next.(Model)

	assert.Equal(t, (160-12)/3-2, m.Viewports[0].Width)
	assert.Equal(t, 36, m.Viewports[0].Height)
}

func TestRun_NothingToBrowse(t *testing.T) {
	assert.ErrorIs(t, Run(nil), ErrNothingToBrowse)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "äö...", truncate("äöüßxyz", 5))
}
