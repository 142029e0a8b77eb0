package vim

import (
	"unicode"

	"github.com/tednaaa/resto/internal/editor"
)

// Op is the buffer operation a keystroke resolves to.
type Op int

const (
	OpNone Op = iota
	OpMove
	OpInsertRune
	OpNewline
	OpBackspace
	OpDeleteForward
	OpInsertBefore
	OpInsertAfter
	OpInsertLineStart
	OpInsertLineEnd
	OpOpenBelow
	OpOpenAbove
	OpExitInsert
	OpEnterVisual
	OpExitVisual
	OpVisualDelete
	OpVisualYank
	OpVisualChange
	OpVisualPut
	OpDeleteChar
	OpDeleteLine
	OpYankLine
	OpChangeLine
	OpDeleteToEnd
	OpChangeToEnd
	OpPutAfter
	OpPutBefore
	OpUndo
	OpRedo
	OpEnterCommand
	OpCommandAppend
	OpCommandBackspace
	OpCommandSubmit
	OpCommandCancel
)

// Action describes what the editor must do for one keystroke.
type Action struct {
	Op    Op
	Dir   editor.Direction
	Count int
	Rune  rune
	Text  string
}

const maxCount = 9999

var motions = map[string]editor.Direction{
	"h":     editor.Left,
	"left":  editor.Left,
	"l":     editor.Right,
	"right": editor.Right,
	"j":     editor.Down,
	"down":  editor.Down,
	"k":     editor.Up,
	"up":    editor.Up,
	"w":     editor.WordForward,
	"b":     editor.WordBackward,
	"e":     editor.WordEnd,
	"0":     editor.LineStart,
	"home":  editor.LineStart,
	"$":     editor.LineEnd,
	"end":   editor.LineEnd,
	"^":     editor.FirstNonBlank,
	"G":     editor.Bottom,
}

// sequences are the two-key normal mode commands, keyed by the full sequence.
var sequences = map[string]Op{
	"dd": OpDeleteLine,
	"yy": OpYankLine,
	"cc": OpChangeLine,
	"gg": OpMove,
}

var normalOps = map[string]Op{
	"i":      OpInsertBefore,
	"a":      OpInsertAfter,
	"I":      OpInsertLineStart,
	"A":      OpInsertLineEnd,
	"o":      OpOpenBelow,
	"O":      OpOpenAbove,
	"v":      OpEnterVisual,
	":":      OpEnterCommand,
	"x":      OpDeleteChar,
	"delete": OpDeleteChar,
	"D":      OpDeleteToEnd,
	"C":      OpChangeToEnd,
	"p":      OpPutAfter,
	"P":      OpPutBefore,
	"u":      OpUndo,
	"ctrl+r": OpRedo,
}

var visualOps = map[string]Op{
	"esc": OpExitVisual,
	"v":   OpExitVisual,
	"d":   OpVisualDelete,
	"x":   OpVisualDelete,
	"y":   OpVisualYank,
	"c":   OpVisualChange,
	"p":   OpVisualPut,
}

// Transition is the pure mode machine. It never fails: keys without a
// meaning in the current mode yield OpNone and leave the mode unchanged.
func Transition(s State, key Key) (State, Action) {
	switch s.Mode {
	case ModeInsert:
		return insertTransition(s, key)
	case ModeVisual:
		return visualTransition(s, key)
	case ModeCommand:
		return commandTransition(s, key)
	default:
		return normalTransition(s, key)
	}
}

func normalTransition(s State, key Key) (State, Action) {
	name := key.String()

	if s.Pending != "" {
		seq := s.Pending + name
		count := s.CountOr(1)
		next := s.resetPending()
		op, ok := sequences[seq]
		if !ok {
			return next, Action{}
		}
		switch op {
		case OpMove:
			return next, Action{Op: OpMove, Dir: editor.Top, Count: 1}
		case OpChangeLine:
			next.Mode = ModeInsert
		}
		return next, Action{Op: op, Count: count}
	}

	if s, ok := accumulateCount(s, key); ok {
		return s, Action{}
	}

	if dir, ok := motions[name]; ok {
		return s.resetPending(), Action{Op: OpMove, Dir: dir, Count: s.CountOr(1)}
	}

	switch name {
	case "d", "y", "c", "g":
		s.Pending = name
		return s, Action{}
	}

	op, ok := normalOps[name]
	if !ok {
		return s.resetPending(), Action{}
	}
	count := s.CountOr(1)
	next := s.resetPending()
	switch op {
	case OpInsertBefore, OpInsertAfter, OpInsertLineStart, OpInsertLineEnd,
		OpOpenBelow, OpOpenAbove, OpChangeToEnd:
		next.Mode = ModeInsert
	case OpEnterVisual:
		next.Mode = ModeVisual
	case OpEnterCommand:
		next.Mode = ModeCommand
		next.Command = ""
	}
	return next, Action{Op: op, Count: count}
}

func visualTransition(s State, key Key) (State, Action) {
	name := key.String()

	if s.Pending == "g" {
		next := s.resetPending()
		if name == "g" {
			return next, Action{Op: OpMove, Dir: editor.Top, Count: 1}
		}
		return next, Action{}
	}

	if s, ok := accumulateCount(s, key); ok {
		return s, Action{}
	}

	if dir, ok := motions[name]; ok {
		return s.resetPending(), Action{Op: OpMove, Dir: dir, Count: s.CountOr(1)}
	}
	if name == "g" {
		s.Pending = name
		return s, Action{}
	}

	op, ok := visualOps[name]
	if !ok {
		return s.resetPending(), Action{}
	}
	next := s.resetPending()
	if op == OpVisualChange {
		next.Mode = ModeInsert
	} else {
		next.Mode = ModeNormal
	}
	return next, Action{Op: op, Count: 1}
}

func insertTransition(s State, key Key) (State, Action) {
	if key.IsRune() {
		if unicode.IsPrint(key.Rune) {
			return s, Action{Op: OpInsertRune, Rune: key.Rune, Count: 1}
		}
		return s, Action{}
	}

	switch key.Name {
	case "esc":
		s.Mode = ModeNormal
		return s.resetPending(), Action{Op: OpExitInsert}
	case "enter":
		return s, Action{Op: OpNewline, Count: 1}
	case "backspace":
		return s, Action{Op: OpBackspace, Count: 1}
	case "delete":
		return s, Action{Op: OpDeleteForward, Count: 1}
	case "tab":
		return s, Action{Op: OpInsertRune, Rune: '\t', Count: 1}
	case "left", "right", "up", "down", "home", "end":
		return s, Action{Op: OpMove, Dir: motions[key.Name], Count: 1}
	}
	return s, Action{}
}

func commandTransition(s State, key Key) (State, Action) {
	if key.IsRune() {
		if !unicode.IsPrint(key.Rune) {
			return s, Action{}
		}
		s.Command += string(key.Rune)
		return s, Action{Op: OpCommandAppend, Rune: key.Rune}
	}

	switch key.Name {
	case "esc":
		return leaveCommand(s), Action{Op: OpCommandCancel}
	case "enter":
		text := s.Command
		return leaveCommand(s), Action{Op: OpCommandSubmit, Text: text}
	case "backspace":
		if s.Command == "" {
			return leaveCommand(s), Action{Op: OpCommandCancel}
		}
		s.Command = dropLastRune(s.Command)
		return s, Action{Op: OpCommandBackspace}
	}
	return s, Action{}
}

func leaveCommand(s State) State {
	s.Mode = ModeNormal
	s.Command = ""
	return s.resetPending()
}

// accumulateCount consumes a count digit. A leading 0 is the line-start
// motion, not a count.
func accumulateCount(s State, key Key) (State, bool) {
	if !key.IsRune() || key.Rune < '0' || key.Rune > '9' {
		return s, false
	}
	digit := int(key.Rune - '0')
	if digit == 0 && !s.HasCount {
		return s, false
	}
	s.Count = min(s.Count*10+digit, maxCount)
	s.HasCount = true
	return s, true
}
