package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tednaaa/resto/internal/app"
	"github.com/tednaaa/resto/internal/editor"
	"github.com/tednaaa/resto/internal/vim"
)

// EditorPane renders one editable pane from a session snapshot.
type EditorPane struct {
	pane   app.Pane
	width  int
	height int
	offset int // first visible line

	cursorStyle    lipgloss.Style
	selectionStyle lipgloss.Style
	gutterStyle    lipgloss.Style
}

// NewEditorPane creates a renderer for pane.
func NewEditorPane(pane app.Pane) *EditorPane {
	return &EditorPane{
		pane:           pane,
		cursorStyle:    lipgloss.NewStyle().Reverse(true),
		selectionStyle: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		gutterStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Pane returns the rendered pane.
func (p *EditorPane) Pane() app.Pane {
	return p.pane
}

// SetSize sets the outer size, borders included.
func (p *EditorPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the outer width.
func (p *EditorPane) Width() int {
	return p.width
}

// Height returns the outer height.
func (p *EditorPane) Height() int {
	return p.height
}

// View renders the pane. title is shown in the title bar; the URL pane uses
// it for the method badge.
func (p *EditorPane) View(snap app.PaneSnapshot, title string) string {
	if p.width == 0 || p.height == 0 {
		return ""
	}
	innerWidth := max(p.width-2, 1)
	innerHeight := max(p.height-3, 1) // border and title bar

	p.scrollTo(snap.Cursor.Line, innerHeight)

	lines := snap.Lines
	gutter := 0
	if len(lines) > 1 || p.pane != app.PaneURL {
		gutter = len(fmt.Sprint(len(lines))) + 1
	}

	var rows []string
	for i := p.offset; i < len(lines) && len(rows) < innerHeight; i++ {
		row := p.renderLine(snap, i, []rune(lines[i]), innerWidth-gutter)
		if gutter > 0 {
			row = p.gutterStyle.Render(fmt.Sprintf("%*d ", gutter-1, i+1)) + row
		}
		rows = append(rows, row)
	}
	for len(rows) < innerHeight {
		rows = append(rows, p.gutterStyle.Render("~"))
	}

	header := p.renderTitle(title, snap, innerWidth)
	return p.border(snap.Focused).Render(header + "\n" + strings.Join(rows, "\n"))
}

func (p *EditorPane) renderTitle(title string, snap app.PaneSnapshot, width int) string {
	label := title
	if snap.Mode != vim.ModeNormal {
		label += " [" + snap.Mode.String() + "]"
	}
	style := lipgloss.NewStyle().Width(width).Bold(true)
	if snap.Focused {
		style = style.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	} else {
		style = style.Foreground(lipgloss.Color("252")).Background(lipgloss.Color("238"))
	}
	return style.Render(Truncate(label, width))
}

// renderLine draws line i with the cursor and selection. The line is cut
// around the cursor so it stays visible on long single lines.
func (p *EditorPane) renderLine(snap app.PaneSnapshot, i int, line []rune, width int) string {
	width = max(width, 1)
	start := 0
	if snap.Focused && snap.Cursor.Line == i && snap.Cursor.Col >= width {
		start = snap.Cursor.Col - width + 1
	}

	var sb strings.Builder
	for col := start; col < len(line) && col-start < width; col++ {
		ch := string(line[col])
		if line[col] == '\t' {
			ch = " "
		}
		pos := editor.Position{Line: i, Col: col}
		switch {
		case snap.Focused && pos == snap.Cursor:
			sb.WriteString(p.cursorStyle.Render(ch))
		case snap.HasSelection && inSelection(pos, snap.SelectionStart, snap.SelectionEnd):
			sb.WriteString(p.selectionStyle.Render(ch))
		default:
			sb.WriteString(ch)
		}
	}
	if snap.Focused && snap.Cursor.Line == i && snap.Cursor.Col >= len(line) && snap.Cursor.Col-start < width {
		sb.WriteString(p.cursorStyle.Render(" "))
	}
	return sb.String()
}

func inSelection(pos, start, end editor.Position) bool {
	return !pos.Before(start) && !end.Before(pos)
}

// scrollTo keeps line inside the visible window.
func (p *EditorPane) scrollTo(line, visible int) {
	if line < p.offset {
		p.offset = line
	}
	if line >= p.offset+visible {
		p.offset = line - visible + 1
	}
	p.offset = max(p.offset, 0)
}

func (p *EditorPane) border(focused bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Width(max(p.width-2, 1))
	if focused {
		return style.BorderForeground(lipgloss.Color("62"))
	}
	return style.BorderForeground(lipgloss.Color("244"))
}

// Truncate cuts s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
