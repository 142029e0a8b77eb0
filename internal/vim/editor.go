package vim

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tednaaa/resto/internal/editor"
)

const undoLimit = 100

// Effect reports what a keystroke did beyond moving the cursor.
type Effect struct {
	// Command is the submitted command line, without the leading ':'.
	Command   string
	Submitted bool
	// Yanked is the text written to the register.
	Yanked  string
	HasYank bool
	Changed bool
}

// Editor binds one Buffer to one mode machine. Editors are independent:
// each pane owns its own.
type Editor struct {
	buffer     *editor.Buffer
	modes      *ModeManager
	register   string
	linewise   bool
	undo       []editor.Snapshot
	redo       []editor.Snapshot
	singleLine bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithSingleLine makes the editor reject newlines, for one-line panes.
func WithSingleLine() Option {
	return func(e *Editor) {
		e.singleLine = true
	}
}

// WithText pre-seeds the buffer.
func WithText(text string) Option {
	return func(e *Editor) {
		e.buffer.Load(e.sanitize(text))
	}
}

// NewEditor creates an editor in Normal mode over an empty buffer.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		buffer: editor.New(),
		modes:  NewModeManager(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Buffer returns the owned buffer.
func (e *Editor) Buffer() *editor.Buffer {
	return e.buffer
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode {
	return e.modes.Current()
}

// Modes returns the mode manager.
func (e *Editor) Modes() *ModeManager {
	return e.modes
}

// CommandLine returns the command line being typed.
func (e *Editor) CommandLine() string {
	return e.modes.CommandBuffer()
}

// Register returns the unnamed register.
func (e *Editor) Register() string {
	return e.register
}

// SingleLine reports whether the editor rejects newlines.
func (e *Editor) SingleLine() bool {
	return e.singleLine
}

// Text returns the buffer content.
func (e *Editor) Text() string {
	return e.buffer.Text()
}

// SetText replaces the content as one undoable change and returns to Normal.
func (e *Editor) SetText(text string) {
	text = e.sanitize(text)
	if text != e.buffer.Text() {
		e.pushUndo()
	}
	e.modes.Reset()
	e.buffer.SetAllowPastEnd(false)
	e.buffer.Load(text)
}

// HandleKey translates a bubbletea key message. Only bracketed pastes are
// pasted; several runes in one message are separate keystrokes.
func (e *Editor) HandleKey(msg tea.KeyMsg) Effect {
	if msg.Type == tea.KeyRunes && msg.Paste {
		return e.Paste(string(msg.Runes))
	}
	if msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) > 1 {
		var effect Effect
		for _, r := range msg.Runes {
			effect = mergeEffects(effect, e.Handle(RuneKey(r)))
		}
		return effect
	}
	return e.Handle(KeyFromMsg(msg))
}

func mergeEffects(a, b Effect) Effect {
	if b.Submitted {
		a.Command, a.Submitted = b.Command, true
	}
	if b.HasYank {
		a.Yanked, a.HasYank = b.Yanked, true
	}
	a.Changed = a.Changed || b.Changed
	return a
}

// Handle runs one keystroke through the transition function and applies the
// resulting action to the buffer.
func (e *Editor) Handle(key Key) Effect {
	before := e.buffer.Text()
	state, action := Transition(e.modes.State(), key)
	effect := e.apply(action)
	e.modes.Apply(state)
	e.syncBounds()
	effect.Changed = e.buffer.Text() != before
	return effect
}

// Paste inserts text according to the mode: at the cursor in Insert and
// Normal mode, over the selection in Visual mode, and onto the command line
// in Command mode.
func (e *Editor) Paste(text string) Effect {
	if text == "" {
		return Effect{}
	}
	before := e.buffer.Text()

	switch e.modes.Current() {
	case ModeCommand:
		line := strings.NewReplacer("\\\r\n", " ", "\\\n", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(text)
		e.modes.AppendToCommandBuffer(line)
		return Effect{}
	case ModeVisual:
		e.pushUndo()
		e.buffer.ReplaceSelection(e.sanitize(text))
		e.modes.SetMode(ModeNormal)
	case ModeInsert:
		e.buffer.InsertText(e.sanitize(text))
	default:
		e.pushUndo()
		e.buffer.SetAllowPastEnd(true)
		e.buffer.InsertText(e.sanitize(text))
	}

	e.syncBounds()
	return Effect{Changed: e.buffer.Text() != before}
}

func (e *Editor) apply(a Action) Effect {
	b := e.buffer
	count := max(a.Count, 1)

	switch a.Op {
	case OpMove:
		b.Move(a.Dir, count)

	case OpInsertRune:
		b.InsertChar(a.Rune)
	case OpNewline:
		if !e.singleLine {
			b.InsertNewline()
		}
	case OpBackspace:
		b.DeleteCharBefore()
	case OpDeleteForward:
		b.DeleteCharAfter()

	case OpInsertBefore:
		e.beginInsert()
	case OpInsertAfter:
		e.beginInsert()
		if b.Line(b.Cursor().Line) != "" {
			b.Move(editor.Right, 1)
		}
	case OpInsertLineStart:
		e.beginInsert()
		b.Move(editor.FirstNonBlank, 1)
	case OpInsertLineEnd:
		e.beginInsert()
		b.Move(editor.LineEnd, 1)
	case OpOpenBelow, OpOpenAbove:
		e.beginInsert()
		switch {
		case e.singleLine:
			b.Move(editor.LineEnd, 1)
		case a.Op == OpOpenBelow:
			b.OpenLineBelow()
		default:
			b.OpenLineAbove()
		}
	case OpExitInsert:
		pos := b.Cursor()
		if pos.Col > 0 {
			pos.Col--
		}
		b.SetAllowPastEnd(false)
		b.SetCursor(pos)

	case OpEnterVisual:
		b.SetSelectionAnchor()
	case OpExitVisual:
		b.ClearSelection()
	case OpVisualYank:
		start, _, _ := b.Selection()
		text := b.YankSelection()
		b.ClearSelection()
		b.SetCursor(start)
		return e.yank(text, false)
	case OpVisualDelete:
		e.pushUndo()
		return e.yank(b.DeleteSelection(), false)
	case OpVisualChange:
		e.pushUndo()
		b.SetAllowPastEnd(true)
		return e.yank(b.DeleteSelection(), false)
	case OpVisualPut:
		if e.register == "" {
			b.ClearSelection()
			break
		}
		e.pushUndo()
		b.ReplaceSelection(e.register)

	case OpDeleteChar:
		e.pushUndo()
		var removed strings.Builder
		for i := 0; i < count; i++ {
			removed.WriteString(b.DeleteCharAfter())
		}
		if removed.Len() > 0 {
			return e.yank(removed.String(), false)
		}
	case OpDeleteLine:
		e.pushUndo()
		lines := make([]string, 0, count)
		for i := 0; i < count && (i == 0 || b.LineCount() > 1 || b.Line(0) != ""); i++ {
			lines = append(lines, b.DeleteLine())
		}
		return e.yank(strings.Join(lines, "\n"), true)
	case OpYankLine:
		first := b.Cursor().Line
		last := min(first+count, b.LineCount())
		lines := make([]string, 0, last-first)
		for i := first; i < last; i++ {
			lines = append(lines, b.Line(i))
		}
		return e.yank(strings.Join(lines, "\n"), true)
	case OpChangeLine:
		e.pushUndo()
		b.Move(editor.LineStart, 1)
		b.SetAllowPastEnd(true)
		return e.yank(b.DeleteToLineEnd(), true)
	case OpDeleteToEnd:
		e.pushUndo()
		return e.yank(b.DeleteToLineEnd(), false)
	case OpChangeToEnd:
		e.pushUndo()
		b.SetAllowPastEnd(true)
		return e.yank(b.DeleteToLineEnd(), false)
	case OpPutAfter, OpPutBefore:
		e.put(a.Op == OpPutAfter)

	case OpUndo:
		e.undoChange()
	case OpRedo:
		e.redoChange()

	case OpCommandSubmit:
		cmd := strings.TrimSpace(a.Text)
		if cmd != "" {
			return Effect{Command: cmd, Submitted: true}
		}
	}
	return Effect{}
}

func (e *Editor) beginInsert() {
	e.pushUndo()
	e.buffer.SetAllowPastEnd(true)
}

func (e *Editor) put(after bool) {
	if e.register == "" {
		return
	}
	e.pushUndo()
	b := e.buffer

	if e.linewise && !e.singleLine {
		line := b.Cursor().Line
		if after {
			b.OpenLineBelow()
			line++
		} else {
			b.OpenLineAbove()
		}
		b.SetAllowPastEnd(true)
		b.InsertText(e.register)
		b.SetAllowPastEnd(false)
		b.SetCursor(editor.Position{Line: line})
		b.Move(editor.FirstNonBlank, 1)
		return
	}

	b.SetAllowPastEnd(true)
	if after && b.Line(b.Cursor().Line) != "" {
		b.Move(editor.Right, 1)
	}
	b.InsertText(e.sanitize(e.register))
	pos := b.Cursor()
	if pos.Col > 0 {
		pos.Col--
	}
	b.SetAllowPastEnd(false)
	b.SetCursor(pos)
}

func (e *Editor) yank(text string, linewise bool) Effect {
	e.register = text
	e.linewise = linewise
	return Effect{Yanked: text, HasYank: true}
}

func (e *Editor) pushUndo() {
	e.undo = append(e.undo, e.buffer.Snapshot())
	if len(e.undo) > undoLimit {
		e.undo = e.undo[len(e.undo)-undoLimit:]
	}
	e.redo = nil
}

func (e *Editor) undoChange() {
	if len(e.undo) == 0 {
		return
	}
	e.redo = append(e.redo, e.buffer.Snapshot())
	last := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.buffer.Restore(last)
}

func (e *Editor) redoChange() {
	if len(e.redo) == 0 {
		return
	}
	e.undo = append(e.undo, e.buffer.Snapshot())
	last := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.buffer.Restore(last)
}

// syncBounds keeps the column bound in step with the mode.
func (e *Editor) syncBounds() {
	e.buffer.SetAllowPastEnd(e.modes.Current() == ModeInsert)
}

func (e *Editor) sanitize(text string) string {
	if !e.singleLine {
		return text
	}
	return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(text)
}
