// Package tui holds the pieces shared by the terminal views.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tednaaa/resto/internal/pipeline"
	"github.com/tednaaa/resto/internal/vim"
)

// Component is the interface for all TUI views.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// SetSize sets the component dimensions.
	SetSize(width, height int)

	// Width returns the component width.
	Width() int

	// Height returns the component height.
	Height() int
}

// Messages

// ResponseMsg is sent once a dispatched request has its record.
type ResponseMsg struct {
	Handle *pipeline.Handle
}

// WaitForResponse blocks off the update loop until h completes.
func WaitForResponse(h *pipeline.Handle) tea.Cmd {
	return func() tea.Msg {
		<-h.Done()
		return ResponseMsg{Handle: h}
	}
}

// modeColors are the status bar badge colors per mode.
var modeColors = map[vim.Mode]lipgloss.Color{
	vim.ModeNormal:  lipgloss.Color("34"),
	vim.ModeInsert:  lipgloss.Color("214"),
	vim.ModeVisual:  lipgloss.Color("141"),
	vim.ModeCommand: lipgloss.Color("62"),
}

// ModeStyle returns the badge style for mode.
func ModeStyle(mode vim.Mode) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("0"))
	if c, ok := modeColors[mode]; ok {
		return style.Background(c)
	}
	return style.Background(lipgloss.Color("240"))
}
