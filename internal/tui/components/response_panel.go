package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tednaaa/resto/internal/app"
	"github.com/tednaaa/resto/internal/core"
)

// ResponsePanel shows the last response: status line, headers and body in a
// scrollable viewport, or a spinner while a request is in flight.
type ResponsePanel struct {
	width    int
	height   int
	viewport viewport.Model
	spinner  spinner.Model

	// identity of the rendered content, to avoid resetting the scroll
	renderedID     string
	renderedFilter string

	highlighter *JSONHighlighter
}

// NewResponsePanel creates an empty panel.
func NewResponsePanel() *ResponsePanel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return &ResponsePanel{
		viewport:    viewport.New(0, 0),
		spinner:     s,
		highlighter: NewJSONHighlighter(),
	}
}

// SetSize sets the outer size, borders included.
func (p *ResponsePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.Width = max(width-4, 1)
	p.viewport.Height = max(height-4, 1) // border, title and status line
}

// Width returns the outer width.
func (p *ResponsePanel) Width() int {
	return p.width
}

// Height returns the outer height.
func (p *ResponsePanel) Height() int {
	return p.height
}

// Tick starts the spinner.
func (p *ResponsePanel) Tick() tea.Cmd {
	return p.spinner.Tick
}

// Update forwards spinner ticks and scroll keys.
func (p *ResponsePanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "pgdown", "ctrl+d":
			p.viewport.ScrollDown(max(p.viewport.Height/2, 1))
		case "pgup", "ctrl+u":
			p.viewport.ScrollUp(max(p.viewport.Height/2, 1))
		}
	}
	return nil
}

// ScrollPercent returns the viewport position.
func (p *ResponsePanel) ScrollPercent() float64 {
	return p.viewport.ScrollPercent()
}

// Sync refreshes the viewport content when the response or filter output
// changed.
func (p *ResponsePanel) Sync(snap app.Snapshot) {
	id := ""
	if snap.Response != nil {
		id = snap.Response.ID()
	}
	if id == p.renderedID && snap.Filtered == p.renderedFilter {
		return
	}
	p.renderedID = id
	p.renderedFilter = snap.Filtered
	p.viewport.SetContent(p.content(snap))
	p.viewport.GotoTop()
}

func (p *ResponsePanel) content(snap app.Snapshot) string {
	record := snap.Response
	if record == nil {
		return ""
	}

	var lines []string
	if snap.Filtered != "" {
		lines = append(lines, sectionStyle.Render("jq "+snap.Filter))
		lines = append(lines, p.highlighter.Highlight(snap.Filtered), "")
	}

	if headers := core.FormatHeaders(record.Headers()); headers != "" {
		lines = append(lines, sectionStyle.Render("Headers"), headers, "")
	}

	lines = append(lines, sectionStyle.Render("Body"))
	lines = append(lines, p.body(record)...)
	return strings.Join(lines, "\n")
}

var sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

func (p *ResponsePanel) body(record *core.ResponseRecord) []string {
	if record.Size() == 0 {
		return []string{"(empty body)"}
	}
	body := record.BodyString()
	switch DetectContentFormat(record.ContentType(), body) {
	case FormatJSON:
		return p.highlighter.FormatLines(body)
	case FormatBinary:
		return []string{fmt.Sprintf("(binary content, %s)", record.FormattedSize())}
	default:
		return strings.Split(body, "\n")
	}
}

// View renders the panel.
func (p *ResponsePanel) View(snap app.Snapshot) string {
	if p.width == 0 || p.height == 0 {
		return ""
	}
	innerWidth := max(p.width-4, 1)

	title := lipgloss.NewStyle().
		Width(innerWidth).
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("238")).
		Render("Response")

	var status, body string
	switch {
	case snap.InFlight:
		status = p.spinner.View() + " sending..."
		if !snap.Started.IsZero() {
			status += " " + time.Since(snap.Started).Round(100*time.Millisecond).String()
		}
		body = p.viewport.View()
	case snap.Response == nil && snap.Latest == nil:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("No response yet")
	default:
		status = p.statusLine(snap)
		body = p.viewport.View()
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(0, 1).
		Width(max(p.width-2, 1)).
		Render(title + "\n" + status + "\n" + body)
}

// statusLine shows the response badge and, when the latest request failed,
// why the shown response is older.
func (p *ResponsePanel) statusLine(snap app.Snapshot) string {
	var parts []string
	if r := snap.Response; r != nil {
		parts = append(parts,
			StatusStyle(r.StatusCode()).Render(r.Status()),
			mutedStyle.Render(r.Elapsed().Round(time.Millisecond).String()),
			mutedStyle.Render(r.FormattedSize()),
			mutedStyle.Render(humanize.Time(r.ReceivedAt())),
		)
	}
	if l := snap.Latest; l != nil && !l.Succeeded() {
		parts = append(parts, errorStyle.Render(l.Err().Error()))
	}
	if p.viewport.TotalLineCount() > p.viewport.Height {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("%3.f%%", p.viewport.ScrollPercent()*100)))
	}
	return strings.Join(parts, "  ")
}

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

// StatusStyle colors a status code badge by class.
func StatusStyle(code int) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch {
	case code >= 200 && code < 300:
		return style.Background(lipgloss.Color("34")).Foreground(lipgloss.Color("255"))
	case code >= 300 && code < 400:
		return style.Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0"))
	case code >= 400 && code < 500:
		return style.Background(lipgloss.Color("208")).Foreground(lipgloss.Color("255"))
	case code >= 500:
		return style.Background(lipgloss.Color("160")).Foreground(lipgloss.Color("255"))
	default:
		return style.Background(lipgloss.Color("240"))
	}
}
