package app

import (
	"time"

	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/editor"
	"github.com/tednaaa/resto/internal/vim"
)

// PaneSnapshot is the rendered state of one pane.
type PaneSnapshot struct {
	Pane   Pane
	Mode   vim.Mode
	Lines  []string
	Cursor editor.Position
	// Selection bounds, inclusive, valid when HasSelection is set.
	SelectionStart editor.Position
	SelectionEnd   editor.Position
	HasSelection   bool
	Focused        bool
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	Focus       Pane
	Mode        vim.Mode
	Panes       []PaneSnapshot
	CommandLine string
	Method      core.Method
	Auth        string
	Timeout     time.Duration
	InFlight    bool
	Started     time.Time
	// Response is the last successful response, Latest the most recent record.
	Response *core.ResponseRecord
	Latest   *core.ResponseRecord
	Filter   string
	Filtered string
	Status   Status
	Cookies  int
}

// Snapshot captures the session.
func (s *Session) Snapshot() Snapshot {
	focused := s.FocusedEditor()
	snap := Snapshot{
		Focus:       s.focus,
		Mode:        focused.Mode(),
		CommandLine: focused.CommandLine(),
		Method:      s.method,
		Auth:        s.auth.Summary(),
		Timeout:     s.timeout,
		InFlight:    s.inFlight != nil,
		Response:    s.response,
		Latest:      s.latest,
		Filter:      s.jqExpr,
		Filtered:    s.jqOutput,
		Status:      s.status,
		Cookies:     s.jar.Len(),
	}
	if s.inFlight != nil {
		snap.Started = s.inFlight.Started()
	}

	for _, p := range Panes {
		ed := s.editors[p]
		buf := ed.Buffer()
		ps := PaneSnapshot{
			Pane:    p,
			Mode:    ed.Mode(),
			Lines:   buf.Lines(),
			Cursor:  buf.Cursor(),
			Focused: p == s.focus,
		}
		ps.SelectionStart, ps.SelectionEnd, ps.HasSelection = buf.Selection()
		snap.Panes = append(snap.Panes, ps)
	}
	return snap
}

// Pane returns the snapshot of p.
func (s Snapshot) Pane(p Pane) PaneSnapshot {
	for _, ps := range s.Panes {
		if ps.Pane == p {
			return ps
		}
	}
	return PaneSnapshot{Pane: p}
}
