package editor

import (
	"strings"
	"unicode"
)

// Position addresses a rune within the buffer. Col counts runes, not bytes.
type Position struct {
	Line int
	Col  int
}

// Before reports whether p comes before other in reading order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}

// Direction is a cursor motion.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	LineStart
	LineEnd
	FirstNonBlank
	WordForward
	WordBackward
	WordEnd
	Top
	Bottom
)

// Buffer is a line-oriented text store with a cursor and an optional
// selection anchor. The cursor is kept in bounds after every operation.
type Buffer struct {
	lines        [][]rune
	cursor       Position
	anchor       *Position
	allowPastEnd bool
}

// Snapshot is an opaque copy of buffer content and cursor, used for undo.
type Snapshot struct {
	lines  [][]rune
	cursor Position
}

// New creates an empty buffer holding a single empty line.
func New() *Buffer {
	return &Buffer{lines: [][]rune{{}}}
}

// NewWithText creates a buffer pre-seeded with text.
func NewWithText(text string) *Buffer {
	b := New()
	b.Load(text)
	return b
}

// Load replaces the content, moving the cursor to the start.
func (b *Buffer) Load(text string) {
	b.lines = splitLines(text)
	b.cursor = Position{}
	b.anchor = nil
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.Load("")
}

// Text returns the content with lines joined by "\n".
func (b *Buffer) Text() string {
	parts := make([]string, len(b.lines))
	for i, line := range b.lines {
		parts[i] = string(line)
	}
	return strings.Join(parts, "\n")
}

// Lines returns the content split into lines.
func (b *Buffer) Lines() []string {
	parts := make([]string, len(b.lines))
	for i, line := range b.lines {
		parts[i] = string(line)
	}
	return parts
}

// Line returns line i, or "" when out of range.
func (b *Buffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return string(b.lines[i])
}

// LineCount returns the number of lines (always at least one).
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// IsEmpty returns true if the buffer holds no text.
func (b *Buffer) IsEmpty() bool {
	return len(b.lines) == 1 && len(b.lines[0]) == 0
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() Position {
	return b.cursor
}

// SetCursor moves the cursor, clamping it into bounds.
func (b *Buffer) SetCursor(pos Position) {
	b.cursor = pos
	b.clamp()
}

// AllowPastEnd reports whether the cursor may sit after the last rune.
func (b *Buffer) AllowPastEnd() bool {
	return b.allowPastEnd
}

// SetAllowPastEnd toggles the insert-style column bound.
func (b *Buffer) SetAllowPastEnd(allow bool) {
	b.allowPastEnd = allow
	b.clamp()
}

// InsertChar inserts r at the cursor and advances past it.
func (b *Buffer) InsertChar(r rune) {
	if r == '\n' {
		b.InsertNewline()
		return
	}
	line := b.lines[b.cursor.Line]
	col := min(b.cursor.Col, len(line))
	updated := make([]rune, 0, len(line)+1)
	updated = append(updated, line[:col]...)
	updated = append(updated, r)
	updated = append(updated, line[col:]...)
	b.lines[b.cursor.Line] = updated
	b.cursor.Col = col + 1
	b.clamp()
}

// InsertText inserts s at the cursor. "\r\n" is treated as a newline.
func (b *Buffer) InsertText(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	allow := b.allowPastEnd
	b.allowPastEnd = true
	for _, r := range s {
		if r == '\r' {
			continue
		}
		b.InsertChar(r)
	}
	b.allowPastEnd = allow
	b.clamp()
}

// InsertNewline splits the current line at the cursor.
func (b *Buffer) InsertNewline() {
	line := b.lines[b.cursor.Line]
	col := min(b.cursor.Col, len(line))
	head := append([]rune{}, line[:col]...)
	tail := append([]rune{}, line[col:]...)

	b.lines[b.cursor.Line] = head
	b.insertLine(b.cursor.Line+1, tail)
	b.cursor = Position{Line: b.cursor.Line + 1}
}

// DeleteCharBefore removes the rune before the cursor, joining with the
// previous line at column zero.
func (b *Buffer) DeleteCharBefore() {
	if b.cursor.Col > 0 {
		line := b.lines[b.cursor.Line]
		col := min(b.cursor.Col, len(line))
		b.lines[b.cursor.Line] = append(line[:col-1:col-1], line[col:]...)
		b.cursor.Col = col - 1
		b.clamp()
		return
	}
	if b.cursor.Line == 0 {
		return
	}
	prev := b.lines[b.cursor.Line-1]
	col := len(prev)
	b.lines[b.cursor.Line-1] = append(prev[:col:col], b.lines[b.cursor.Line]...)
	b.removeLine(b.cursor.Line)
	b.cursor = Position{Line: b.cursor.Line - 1, Col: col}
	b.clamp()
}

// DeleteCharAfter removes the rune under the cursor and returns it. At the
// end of a line in insert-style mode the next line is joined instead.
func (b *Buffer) DeleteCharAfter() string {
	line := b.lines[b.cursor.Line]
	if b.cursor.Col >= len(line) {
		if b.allowPastEnd && b.cursor.Line < len(b.lines)-1 {
			b.lines[b.cursor.Line] = append(line[:len(line):len(line)], b.lines[b.cursor.Line+1]...)
			b.removeLine(b.cursor.Line + 1)
			return "\n"
		}
		return ""
	}
	removed := string(line[b.cursor.Col])
	b.lines[b.cursor.Line] = append(line[:b.cursor.Col:b.cursor.Col], line[b.cursor.Col+1:]...)
	b.clamp()
	return removed
}

// DeleteLine removes the current line and returns its text. The last
// remaining line is emptied rather than removed.
func (b *Buffer) DeleteLine() string {
	removed := string(b.lines[b.cursor.Line])
	if len(b.lines) == 1 {
		b.lines[0] = []rune{}
	} else {
		b.removeLine(b.cursor.Line)
	}
	b.cursor.Col = 0
	b.clamp()
	b.Move(FirstNonBlank, 1)
	return removed
}

// DeleteToLineEnd removes from the cursor to the end of the line.
func (b *Buffer) DeleteToLineEnd() string {
	line := b.lines[b.cursor.Line]
	col := min(b.cursor.Col, len(line))
	removed := string(line[col:])
	b.lines[b.cursor.Line] = line[:col:col]
	b.clamp()
	return removed
}

// OpenLineBelow inserts an empty line after the current one and moves to it.
func (b *Buffer) OpenLineBelow() {
	b.insertLine(b.cursor.Line+1, []rune{})
	b.cursor = Position{Line: b.cursor.Line + 1}
}

// OpenLineAbove inserts an empty line before the current one and moves to it.
func (b *Buffer) OpenLineAbove() {
	b.insertLine(b.cursor.Line, []rune{})
	b.cursor = Position{Line: b.cursor.Line}
}

// Move applies a motion count times. Motions never fail; they stop at the
// buffer edges.
func (b *Buffer) Move(dir Direction, count int) {
	if count < 1 {
		count = 1
	}
	switch dir {
	case LineStart:
		b.cursor.Col = 0
	case LineEnd:
		b.cursor.Col = len(b.lines[b.cursor.Line])
	case FirstNonBlank:
		b.cursor.Col = firstNonBlank(b.lines[b.cursor.Line])
	case Top:
		b.cursor = Position{Line: 0, Col: firstNonBlank(b.lines[0])}
	case Bottom:
		last := len(b.lines) - 1
		b.cursor = Position{Line: last, Col: firstNonBlank(b.lines[last])}
	default:
		for i := 0; i < count; i++ {
			b.step(dir)
		}
	}
	b.clamp()
}

func (b *Buffer) step(dir Direction) {
	switch dir {
	case Left:
		if b.cursor.Col > 0 {
			b.cursor.Col--
		}
	case Right:
		b.cursor.Col++
		b.clamp()
	case Up:
		if b.cursor.Line > 0 {
			b.cursor.Line--
		}
		b.clamp()
	case Down:
		if b.cursor.Line < len(b.lines)-1 {
			b.cursor.Line++
		}
		b.clamp()
	case WordForward:
		b.cursor = b.positionAt(b.nextWordStart(b.offsetOf(b.cursor)))
	case WordBackward:
		b.cursor = b.positionAt(b.prevWordStart(b.offsetOf(b.cursor)))
	case WordEnd:
		b.cursor = b.positionAt(b.nextWordEnd(b.offsetOf(b.cursor)))
	}
}

// SetSelectionAnchor anchors a selection at the cursor.
func (b *Buffer) SetSelectionAnchor() {
	anchor := b.cursor
	b.anchor = &anchor
}

// ClearSelection drops the selection anchor.
func (b *Buffer) ClearSelection() {
	b.anchor = nil
}

// HasSelection returns true if a selection anchor is set.
func (b *Buffer) HasSelection() bool {
	return b.anchor != nil
}

// Selection returns the ordered, inclusive bounds of the selection.
func (b *Buffer) Selection() (start, end Position, ok bool) {
	if b.anchor == nil {
		return Position{}, Position{}, false
	}
	start, end = *b.anchor, b.cursor
	if end.Before(start) {
		start, end = end, start
	}
	return start, end, true
}

// YankSelection returns the selected text without modifying the buffer.
func (b *Buffer) YankSelection() string {
	from, to, ok := b.selectionRange()
	if !ok {
		return ""
	}
	return string(b.flatten()[from:to])
}

// DeleteSelection removes the selected text, clears the selection and
// returns what was removed.
func (b *Buffer) DeleteSelection() string {
	from, to, ok := b.selectionRange()
	b.anchor = nil
	if !ok {
		return ""
	}
	text := b.flatten()
	removed := string(text[from:to])
	b.rebuild(append(text[:from:from], text[to:]...), from)
	return removed
}

// ReplaceSelection swaps the selected text for text. Without a selection the
// text is inserted at the cursor.
func (b *Buffer) ReplaceSelection(text string) {
	if b.HasSelection() {
		b.DeleteSelection()
	}
	b.InsertText(text)
}

// Snapshot captures content and cursor.
func (b *Buffer) Snapshot() Snapshot {
	lines := make([][]rune, len(b.lines))
	for i, line := range b.lines {
		lines[i] = append([]rune{}, line...)
	}
	return Snapshot{lines: lines, cursor: b.cursor}
}

// Restore resets content and cursor to a snapshot and clears the selection.
func (b *Buffer) Restore(s Snapshot) {
	if len(s.lines) == 0 {
		b.Clear()
		return
	}
	b.lines = make([][]rune, len(s.lines))
	for i, line := range s.lines {
		b.lines[i] = append([]rune{}, line...)
	}
	b.cursor = s.cursor
	b.anchor = nil
	b.clamp()
}

// Text returns the snapshot content.
func (s Snapshot) Text() string {
	parts := make([]string, len(s.lines))
	for i, line := range s.lines {
		parts[i] = string(line)
	}
	return strings.Join(parts, "\n")
}

func (b *Buffer) clamp() {
	b.cursor = b.bound(b.cursor, b.allowPastEnd)
	if b.anchor != nil {
		anchor := b.bound(*b.anchor, true)
		b.anchor = &anchor
	}
}

func (b *Buffer) bound(pos Position, pastEnd bool) Position {
	pos.Line = max(0, min(pos.Line, len(b.lines)-1))
	maxCol := len(b.lines[pos.Line])
	if !pastEnd {
		maxCol = max(maxCol-1, 0)
	}
	pos.Col = max(0, min(pos.Col, maxCol))
	return pos
}

func (b *Buffer) insertLine(at int, line []rune) {
	b.lines = append(b.lines, nil)
	copy(b.lines[at+1:], b.lines[at:])
	b.lines[at] = line
}

func (b *Buffer) removeLine(at int) {
	b.lines = append(b.lines[:at], b.lines[at+1:]...)
	if len(b.lines) == 0 {
		b.lines = [][]rune{{}}
	}
}

// flatten returns the content as a single rune slice with '\n' separators.
func (b *Buffer) flatten() []rune {
	var out []rune
	for i, line := range b.lines {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, line...)
	}
	return out
}

func (b *Buffer) rebuild(text []rune, cursorOffset int) {
	b.lines = splitLines(string(text))
	b.cursor = b.positionAt(cursorOffset)
	b.clamp()
}

func (b *Buffer) offsetOf(pos Position) int {
	offset := 0
	for i := 0; i < pos.Line; i++ {
		offset += len(b.lines[i]) + 1
	}
	return offset + pos.Col
}

func (b *Buffer) positionAt(offset int) Position {
	for i, line := range b.lines {
		if offset <= len(line) {
			return Position{Line: i, Col: max(offset, 0)}
		}
		offset -= len(line) + 1
	}
	last := len(b.lines) - 1
	return Position{Line: last, Col: len(b.lines[last])}
}

// selectionRange converts the inclusive selection into a half-open range of
// flattened offsets.
func (b *Buffer) selectionRange() (from, to int, ok bool) {
	start, end, ok := b.Selection()
	if !ok {
		return 0, 0, false
	}
	total := len(b.flatten())
	from = b.offsetOf(start)
	to = min(b.offsetOf(end)+1, total)
	if from >= to {
		return 0, 0, false
	}
	return from, to, true
}

const (
	classSpace = iota
	classWord
	classPunct
)

func runeClass(r rune) int {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return classWord
	default:
		return classPunct
	}
}

func (b *Buffer) nextWordStart(i int) int {
	text := b.flatten()
	n := len(text)
	if i >= n {
		return i
	}
	if class := runeClass(text[i]); class != classSpace {
		for i < n && runeClass(text[i]) == class {
			i++
		}
	}
	for i < n && runeClass(text[i]) == classSpace {
		i++
	}
	if i >= n {
		return max(n-1, 0)
	}
	return i
}

func (b *Buffer) prevWordStart(i int) int {
	text := b.flatten()
	if i <= 0 || len(text) == 0 {
		return 0
	}
	i = min(i, len(text)) - 1
	for i > 0 && runeClass(text[i]) == classSpace {
		i--
	}
	class := runeClass(text[i])
	for i > 0 && runeClass(text[i-1]) == class {
		i--
	}
	return i
}

func (b *Buffer) nextWordEnd(i int) int {
	text := b.flatten()
	n := len(text)
	if n == 0 || i >= n-1 {
		return i
	}
	i++
	for i < n-1 && runeClass(text[i]) == classSpace {
		i++
	}
	class := runeClass(text[i])
	for i < n-1 && runeClass(text[i+1]) == class {
		i++
	}
	return i
}

func firstNonBlank(line []rune) int {
	for i, r := range line {
		if !unicode.IsSpace(r) {
			return i
		}
	}
	return 0
}

func splitLines(text string) [][]rune {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, part := range parts {
		lines[i] = []rune(part)
	}
	return lines
}
