package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tednaaa/resto/internal/importer"
	"github.com/tednaaa/resto/internal/pipeline"
	"github.com/tednaaa/resto/internal/vim"
)

// Action is what the router did with an input event.
type Action int

const (
	ActionNone Action = iota
	ActionEdit
	ActionFocus
	ActionMethod
	ActionSend
	ActionCancel
	ActionCommand
	ActionQuit
)

// Global key bindings.
const (
	KeyQuit       = "ctrl+c"
	KeySend       = "ctrl+s"
	KeyCancel     = "ctrl+x"
	KeyNextPane   = "tab"
	KeyPrevPane   = "shift+tab"
	KeyNextMethod = "ctrl+n"
	KeyPrevMethod = "ctrl+p"
)

// Routed reports the outcome of one input event.
type Routed struct {
	Action Action
	Pane   Pane
	Effect vim.Effect
	// Handle is set when the event dispatched a request.
	Handle *pipeline.Handle
}

// Router dispatches input events to the editor of the focused pane or to the
// session's request trigger.
type Router struct {
	session *Session
}

// NewRouter creates a router over s.
func NewRouter(s *Session) *Router {
	return &Router{session: s}
}

// Session returns the routed session.
func (r *Router) Session() *Session {
	return r.session
}

// RouteKey routes a bubbletea key message. Bracketed pastes go through Paste.
// Runes read together from the terminal arrive as one message and are routed
// one keystroke at a time.
func (r *Router) RouteKey(msg tea.KeyMsg) Routed {
	if msg.Type == tea.KeyRunes && msg.Paste {
		return r.Paste(string(msg.Runes))
	}
	if msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) > 1 {
		var last Routed
		for _, ru := range msg.Runes {
			last = r.Route(vim.RuneKey(ru))
			if last.Action == ActionQuit || last.Handle != nil {
				return last
			}
		}
		return last
	}
	return r.Route(vim.KeyFromMsg(msg))
}

// Route routes one keystroke. Global keys win over the editor except in
// Command mode, where everything but quit goes to the command line.
func (r *Router) Route(key vim.Key) Routed {
	s := r.session
	pane := s.Focused()
	ed := s.FocusedEditor()
	name := key.String()

	if name == KeyQuit {
		return Routed{Action: ActionQuit, Pane: pane}
	}

	if ed.Mode() != vim.ModeCommand {
		switch name {
		case KeySend:
			return r.send()
		case KeyCancel:
			s.Cancel()
			return Routed{Action: ActionCancel, Pane: pane}
		}
	}

	if ed.Mode() == vim.ModeNormal && !ed.Modes().HasCount() && ed.Modes().KeySequence() == "" {
		switch name {
		case KeyNextPane:
			s.Focus(pane.Next())
			return Routed{Action: ActionFocus, Pane: s.Focused()}
		case KeyPrevPane:
			s.Focus(pane.Prev())
			return Routed{Action: ActionFocus, Pane: s.Focused()}
		case KeyNextMethod:
			s.SetMethod(s.Method().Next())
			return Routed{Action: ActionMethod, Pane: pane}
		case KeyPrevMethod:
			s.SetMethod(s.Method().Prev())
			return Routed{Action: ActionMethod, Pane: pane}
		}
	}

	effect := ed.Handle(key)
	r.yank(effect)
	if effect.Submitted {
		routed := r.Exec(effect.Command)
		routed.Effect = effect
		return routed
	}
	return Routed{Action: ActionEdit, Pane: pane, Effect: effect}
}

// Paste routes pasted text. A curl command pasted into the URL pane outside
// Command mode is imported instead of inserted.
func (r *Router) Paste(text string) Routed {
	s := r.session
	pane := s.Focused()
	ed := s.FocusedEditor()

	if pane == PaneURL && ed.Mode() != vim.ModeCommand && importer.IsCurlCommand(text) {
		s.Import(text)
		return Routed{Action: ActionCommand, Pane: pane}
	}
	return Routed{Action: ActionEdit, Pane: pane, Effect: ed.Paste(text)}
}

func (r *Router) send() Routed {
	h, err := r.session.Send()
	if err != nil {
		return Routed{Action: ActionNone, Pane: r.session.Focused()}
	}
	return Routed{Action: ActionSend, Pane: r.session.Focused(), Handle: h}
}

func (r *Router) yank(effect vim.Effect) {
	if !effect.HasYank || effect.Yanked == "" {
		return
	}
	if err := r.session.clipboard.WriteAll(effect.Yanked); err != nil {
		r.session.logger.Warn("write clipboard", "err", err)
	}
}
