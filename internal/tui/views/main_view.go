package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tednaaa/resto/internal/app"
	"github.com/tednaaa/resto/internal/tui"
	"github.com/tednaaa/resto/internal/tui/components"
	"github.com/tednaaa/resto/internal/vim"
)

// urlPaneHeight fits one line of text with its border and title bar.
const urlPaneHeight = 4

// MainView is the request editor: URL on top, headers and body stacked on the
// left, the response on the right.
type MainView struct {
	width    int
	height   int
	router   *app.Router
	panes    map[app.Pane]*components.EditorPane
	response *components.ResponsePanel
	keymap   *vim.KeyMap
	showHelp bool
	quitting bool
}

// NewMainView creates the view over session.
func NewMainView(session *app.Session) *MainView {
	v := &MainView{
		router:   app.NewRouter(session),
		panes:    make(map[app.Pane]*components.EditorPane, len(app.Panes)),
		response: components.NewResponsePanel(),
		keymap:   vim.DefaultKeyMap(),
	}
	for _, p := range app.Panes {
		v.panes[p] = components.NewEditorPane(p)
	}
	return v
}

// Init initializes the view.
func (v *MainView) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	cmd := v.update(msg)
	v.response.Sync(v.Session().Snapshot())
	return v, cmd
}

func (v *MainView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tui.ResponseMsg:
		v.Session().Complete(msg.Handle)
		return nil

	case spinner.TickMsg:
		// the spinner stops once nothing is in flight
		if v.Session().InFlight() == nil {
			return nil
		}
		return v.response.Update(msg)
	}
	return nil
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if v.showHelp {
		if msg.Type == tea.KeyEsc || msg.String() == "?" || msg.String() == "q" {
			v.showHelp = false
		}
		return nil
	}

	ed := v.Session().FocusedEditor()
	if ed.Mode() == vim.ModeNormal && !ed.Modes().HasCount() && ed.Modes().KeySequence() == "" {
		if msg.String() == "?" {
			v.showHelp = true
			return nil
		}
	}

	switch msg.String() {
	case "pgdown", "pgup", "ctrl+d", "ctrl+u":
		return v.response.Update(msg)
	}

	return v.handleRouted(v.router.RouteKey(msg))
}

func (v *MainView) handleRouted(routed app.Routed) tea.Cmd {
	if routed.Action == app.ActionQuit {
		v.quitting = true
		v.Session().Close()
		return tea.Quit
	}
	if routed.Handle != nil {
		return tea.Batch(v.response.Tick(), tui.WaitForResponse(routed.Handle))
	}
	return nil
}

func (v *MainView) updatePaneSizes() {
	if v.width == 0 || v.height == 0 {
		return
	}

	// help bar and status bar
	totalHeight := max(v.height-2, urlPaneHeight+6)
	leftWidth := v.width / 2
	rightWidth := v.width - leftWidth

	below := totalHeight - urlPaneHeight
	headersHeight := max(below*2/5, 3)
	bodyHeight := below - headersHeight

	v.panes[app.PaneURL].SetSize(v.width, urlPaneHeight)
	v.panes[app.PaneHeaders].SetSize(leftWidth, headersHeight)
	v.panes[app.PaneBody].SetSize(leftWidth, bodyHeight)
	v.response.SetSize(rightWidth, below)
}

// View renders the view.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 || v.quitting {
		return ""
	}
	if v.showHelp {
		return v.renderHelp()
	}

	snap := v.Session().Snapshot()

	url := v.panes[app.PaneURL].View(snap.Pane(app.PaneURL), snap.Method.String())
	left := lipgloss.JoinVertical(lipgloss.Left,
		v.panes[app.PaneHeaders].View(snap.Pane(app.PaneHeaders), app.PaneHeaders.String()),
		v.panes[app.PaneBody].View(snap.Pane(app.PaneBody), bodyTitle(snap)),
	)
	right := v.response.View(snap)

	return lipgloss.JoinVertical(lipgloss.Left,
		url,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		v.renderHelpBar(snap),
		v.renderStatusBar(snap),
	)
}

func bodyTitle(snap app.Snapshot) string {
	title := app.PaneBody.String()
	if snap.Auth != "" && snap.Auth != "No Auth" {
		title += "  (" + snap.Auth + ")"
	}
	return title
}

// renderHelpBar lists the bindings of the focused pane's mode.
func (v *MainView) renderHelpBar(snap app.Snapshot) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" │ ")

	var hints []string
	for _, b := range v.keymap.GetBindings(snap.Mode) {
		hints = append(hints, keyStyle.Render(b.Key())+descStyle.Render(" "+b.Description()))
	}
	if snap.InFlight {
		hints = append(hints, keyStyle.Render(app.KeyCancel)+descStyle.Render(" cancel"))
	}
	if snap.Mode == vim.ModeNormal {
		hints = append(hints, keyStyle.Render("?")+descStyle.Render(" help"))
	}

	return lipgloss.NewStyle().
		Width(v.width).
		MaxHeight(1).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Render(strings.Join(hints, sep))
}

var statusColors = map[app.StatusLevel]lipgloss.Color{
	app.StatusInfo:    lipgloss.Color("252"),
	app.StatusSuccess: lipgloss.Color("34"),
	app.StatusError:   lipgloss.Color("160"),
}

// renderStatusBar shows the mode, focus and session state, or the command
// line while one is being typed.
func (v *MainView) renderStatusBar(snap app.Snapshot) string {
	barStyle := lipgloss.NewStyle().
		Width(v.width).
		MaxHeight(1).
		Background(lipgloss.Color("236"))
	mode := tui.ModeStyle(snap.Mode).Render(snap.Mode.String())

	if snap.Mode == vim.ModeCommand {
		return barStyle.Render(mode + " :" + snap.CommandLine)
	}

	item := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	items := []string{
		mode,
		item.Render(snap.Focus.String()),
		item.Render(snap.Auth),
		item.Render(fmt.Sprintf("timeout %s", snap.Timeout)),
	}
	if snap.Cookies > 0 {
		items = append(items, item.Render(fmt.Sprintf("%d cookies", snap.Cookies)))
	}
	if snap.Filter != "" {
		items = append(items, item.Render("jq "+snap.Filter))
	}
	if snap.Status.Text != "" {
		items = append(items, lipgloss.NewStyle().
			Foreground(statusColors[snap.Status.Level]).
			Bold(true).
			Padding(0, 1).
			Render(snap.Status.Text))
	}

	return barStyle.Render(strings.Join(items, " "))
}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Panes", [][2]string{
		{"Tab / Shift+Tab", "Cycle URL, Headers and Body"},
		{"Ctrl+N / Ctrl+P", "Next / previous method"},
		{"PgUp / PgDn", "Scroll the response"},
	}},
	{"Editing", [][2]string{
		{"i a I A o O", "Insert"},
		{"v", "Visual selection"},
		{"h j k l w b e 0 $ ^ gg G", "Motions"},
		{"x dd D C cc yy p P", "Edit and yank"},
		{"u / Ctrl+R", "Undo / redo"},
	}},
	{"Requests", [][2]string{
		{"Ctrl+S", "Send"},
		{"Ctrl+X", "Cancel"},
		{":import [curl]", "Import a curl command"},
		{":export", "Copy as curl"},
		{":jq EXPR", "Filter the JSON response"},
		{":history [N]", "Load a past request"},
		{":auth basic|bearer|none", "Set auth"},
	}},
	{"General", [][2]string{
		{"?", "Toggle this help"},
		{"Ctrl+C / :q", "Quit"},
	}},
}

func (v *MainView) renderHelp() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Width(26)

	lines := []string{titleStyle.Render("resto help"), ""}
	for _, section := range helpSections {
		lines = append(lines, titleStyle.Render(section.title))
		for _, row := range section.rows {
			lines = append(lines, "  "+keyStyle.Render(row[0])+row[1])
		}
		lines = append(lines, "")
	}
	lines = append(lines, "Press ? or Esc to close")

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, box)
}

// Title returns the view title.
func (v *MainView) Title() string {
	return "resto"
}

// SetSize sets dimensions.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.updatePaneSizes()
}

// Width returns the width.
func (v *MainView) Width() int {
	return v.width
}

// Height returns the height.
func (v *MainView) Height() int {
	return v.height
}

// Session returns the session driven by the view.
func (v *MainView) Session() *app.Session {
	return v.router.Session()
}

// EditorPane returns the renderer of pane.
func (v *MainView) EditorPane(pane app.Pane) *components.EditorPane {
	return v.panes[pane]
}

// ResponsePanel returns the response panel.
func (v *MainView) ResponsePanel() *components.ResponsePanel {
	return v.response
}

// ShowingHelp reports whether the help overlay is open.
func (v *MainView) ShowingHelp() bool {
	return v.showHelp
}
