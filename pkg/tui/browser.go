package tui

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

// ErrNothingToBrowse is returned when there are no records to show.
var ErrNothingToBrowse = errors.New("no comparison results to browse")

// Run opens the browser over records and blocks until the user quits.
func Run(records []*model.ComparisonRecord, opts ...tea.ProgramOption) error {
	items := Items(records)
	if len(items) == 0 {
		return ErrNothingToBrowse
	}

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewModel(items), opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// IsTerminal checks if we're running in an interactive terminal
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
