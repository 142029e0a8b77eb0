package vim

import "unicode/utf8"

// Mode represents the current vim editing mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeCommand
	ModeVisual
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeInsert:
		return "INSERT"
	case ModeCommand:
		return "COMMAND"
	case ModeVisual:
		return "VISUAL"
	default:
		return "UNKNOWN"
	}
}

// State is the value the transition function works on.
type State struct {
	Mode     Mode
	Pending  string
	Count    int
	HasCount bool
	Command  string
}

// CountOr returns the typed count, or def when none was typed.
func (s State) CountOr(def int) int {
	if s.HasCount && s.Count > 0 {
		return s.Count
	}
	return def
}

func (s State) resetPending() State {
	s.Pending = ""
	s.Count = 0
	s.HasCount = false
	return s
}

// ModeManager holds mode state between keystrokes.
type ModeManager struct {
	current       Mode
	previous      Mode
	commandBuffer string
	keySequence   string
	count         int
	hasCount      bool
}

// NewModeManager creates a new mode manager starting in normal mode.
func NewModeManager() *ModeManager {
	return &ModeManager{
		current:  ModeNormal,
		previous: ModeNormal,
	}
}

// Current returns the current mode.
func (m *ModeManager) Current() Mode {
	return m.current
}

// Previous returns the previous mode.
func (m *ModeManager) Previous() Mode {
	return m.previous
}

// SetMode changes the current mode.
func (m *ModeManager) SetMode(mode Mode) {
	if m.current == ModeCommand && mode != ModeCommand {
		m.commandBuffer = ""
	}
	if mode != m.current {
		m.previous = m.current
	}
	m.current = mode
}

// IsNormal returns true if in normal mode.
func (m *ModeManager) IsNormal() bool {
	return m.current == ModeNormal
}

// IsInsert returns true if in insert mode.
func (m *ModeManager) IsInsert() bool {
	return m.current == ModeInsert
}

// IsCommand returns true if in command mode.
func (m *ModeManager) IsCommand() bool {
	return m.current == ModeCommand
}

// IsVisual returns true if in visual mode.
func (m *ModeManager) IsVisual() bool {
	return m.current == ModeVisual
}

// CommandBuffer returns the current command line.
func (m *ModeManager) CommandBuffer() string {
	return m.commandBuffer
}

// AppendToCommandBuffer adds text to the command line.
func (m *ModeManager) AppendToCommandBuffer(s string) {
	m.commandBuffer += s
}

// KeySequence returns the pending key sequence (e.g. "d" waiting for "dd").
func (m *ModeManager) KeySequence() string {
	return m.keySequence
}

// Count returns the typed count, 0 when none.
func (m *ModeManager) Count() int {
	return m.count
}

// HasCount returns true if a count was explicitly typed.
func (m *ModeManager) HasCount() bool {
	return m.hasCount
}

// State exports the manager as a transition State.
func (m *ModeManager) State() State {
	return State{
		Mode:     m.current,
		Pending:  m.keySequence,
		Count:    m.count,
		HasCount: m.hasCount,
		Command:  m.commandBuffer,
	}
}

// Apply stores the result of a transition.
func (m *ModeManager) Apply(s State) {
	m.SetMode(s.Mode)
	m.commandBuffer = s.Command
	m.keySequence = s.Pending
	m.count = s.Count
	m.hasCount = s.HasCount
}

// Reset resets all mode state to defaults.
func (m *ModeManager) Reset() {
	m.current = ModeNormal
	m.previous = ModeNormal
	m.commandBuffer = ""
	m.keySequence = ""
	m.count = 0
	m.hasCount = false
}

func dropLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
