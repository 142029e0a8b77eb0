package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/exporter"
	"github.com/tednaaa/resto/internal/importer"
)

const maxSuggestions = 3

type command struct {
	names []string
	usage string
	run   func(r *Router, args string) Routed
}

var commands []command

func init() {
	commands = []command{
		{names: []string{"import", "curl"}, usage: "import [curl command]", run: (*Router).cmdImport},
		{names: []string{"send"}, usage: "send", run: (*Router).cmdSend},
		{names: []string{"cancel"}, usage: "cancel", run: (*Router).cmdCancel},
		{names: []string{"clear"}, usage: "clear [all|response|url|headers|body]", run: (*Router).cmdClear},
		{names: []string{"method"}, usage: "method VERB", run: (*Router).cmdMethod},
		{names: []string{"timeout"}, usage: "timeout DURATION", run: (*Router).cmdTimeout},
		{names: []string{"auth"}, usage: "auth basic USER:PASS | bearer TOKEN | none", run: (*Router).cmdAuth},
		{names: []string{"export"}, usage: "export", run: (*Router).cmdExport},
		{names: []string{"jq"}, usage: "jq [expression]", run: (*Router).cmdJQ},
		{names: []string{"history"}, usage: "history [N]", run: (*Router).cmdHistory},
		{names: []string{"cookie"}, usage: "cookie NAME=VALUE[; ...]", run: (*Router).cmdCookie},
		{names: []string{"cookies"}, usage: "cookies", run: (*Router).cmdCookies},
		{names: []string{"q", "quit"}, usage: "quit", run: (*Router).cmdQuit},
	}
}

// CommandNames lists every command name, aliases included.
func CommandNames() []string {
	var names []string
	for _, c := range commands {
		names = append(names, c.names...)
	}
	return names
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		for _, n := range c.names {
			if n == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// Exec runs a command line, without its leading ':'.
func (r *Router) Exec(line string) Routed {
	s := r.session
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if line == "" {
		return Routed{Action: ActionNone, Pane: s.Focused()}
	}

	name, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	cmd, ok := lookupCommand(name)
	if !ok {
		s.fail(unknownCommand(name))
		return Routed{Action: ActionCommand, Pane: s.Focused()}
	}
	s.logger.Debug("command", "name", name)
	return cmd.run(r, args)
}

func unknownCommand(name string) error {
	matches := fuzzy.Find(name, CommandNames())
	if len(matches) == 0 {
		return fmt.Errorf("unknown command: %s", name)
	}
	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return fmt.Errorf("unknown command: %s (did you mean %s?)", name, strings.Join(suggestions, ", "))
}

func (r *Router) done() Routed {
	return Routed{Action: ActionCommand, Pane: r.session.Focused()}
}

func (r *Router) cmdImport(args string) Routed {
	r.session.Import(args)
	return r.done()
}

func (r *Router) cmdSend(string) Routed {
	return r.send()
}

func (r *Router) cmdCancel(string) Routed {
	r.session.Cancel()
	return Routed{Action: ActionCancel, Pane: r.session.Focused()}
}

func (r *Router) cmdClear(args string) Routed {
	s := r.session
	switch strings.ToLower(args) {
	case "":
		s.FocusedEditor().SetText("")
		s.setStatus(StatusInfo, "cleared %s", s.Focused())
	case "all":
		for _, p := range Panes {
			s.editors[p].SetText("")
		}
		s.method = core.MethodGet
		s.auth = nil
		s.contentType = ""
		s.typedBody = ""
		s.ClearResponse()
		s.setStatus(StatusInfo, "cleared all")
	case "response":
		s.ClearResponse()
		s.setStatus(StatusInfo, "cleared response")
	default:
		pane, ok := ParsePane(args)
		if !ok {
			s.fail(fmt.Errorf("clear: unknown target %q", args))
			break
		}
		s.editors[pane].SetText("")
		s.setStatus(StatusInfo, "cleared %s", pane)
	}
	return r.done()
}

func (r *Router) cmdMethod(args string) Routed {
	s := r.session
	m, err := core.ParseMethod(args)
	if err != nil {
		s.fail(err)
		return r.done()
	}
	s.SetMethod(m)
	s.setStatus(StatusInfo, "method %s", m)
	return Routed{Action: ActionMethod, Pane: s.Focused()}
}

func (r *Router) cmdTimeout(args string) Routed {
	s := r.session
	if args == "" {
		s.setStatus(StatusInfo, "timeout %s", s.timeout)
		return r.done()
	}
	d, err := parseTimeout(args)
	if err != nil {
		s.fail(err)
		return r.done()
	}
	s.SetTimeout(d)
	s.setStatus(StatusInfo, "timeout %s", d)
	return r.done()
}

// parseTimeout accepts Go durations and bare seconds.
func parseTimeout(text string) (time.Duration, error) {
	d, err := time.ParseDuration(text)
	if err != nil {
		secs, serr := strconv.ParseFloat(text, 64)
		if serr != nil {
			return 0, fmt.Errorf("timeout: invalid duration %q", text)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout: must be positive, got %s", text)
	}
	return d, nil
}

func (r *Router) cmdAuth(args string) Routed {
	s := r.session
	kind, value, _ := strings.Cut(args, " ")
	value = strings.TrimSpace(value)

	switch strings.ToLower(kind) {
	case "", "none":
		s.SetAuth(nil)
	case "basic":
		user, pass, ok := strings.Cut(value, ":")
		if !ok || user == "" {
			s.fail(errors.New("auth basic: expected USER:PASS"))
			return r.done()
		}
		s.SetAuth(core.NewBasicAuth(user, pass))
	case "bearer":
		if value == "" {
			s.fail(errors.New("auth bearer: missing token"))
			return r.done()
		}
		s.SetAuth(core.NewBearerAuth(value))
	default:
		s.fail(fmt.Errorf("auth: unknown type %q", kind))
		return r.done()
	}
	s.setStatus(StatusInfo, "auth: %s", s.auth.Summary())
	return r.done()
}

func (r *Router) cmdExport(string) Routed {
	r.session.Export()
	return r.done()
}

func (r *Router) cmdJQ(args string) Routed {
	r.session.SetFilter(args)
	return r.done()
}

func (r *Router) cmdHistory(args string) Routed {
	n := 1
	if args != "" {
		v, err := strconv.Atoi(args)
		if err != nil || v < 1 {
			r.session.fail(fmt.Errorf("history: invalid index %q", args))
			return r.done()
		}
		n = v
	}
	r.session.LoadHistory(n)
	return r.done()
}

func (r *Router) cmdCookie(args string) Routed {
	s := r.session
	if args == "" {
		s.fail(errors.New("cookie: expected NAME=VALUE"))
		return r.done()
	}
	n, err := s.jar.AddRaw(s.requestURL(), args)
	if err != nil {
		s.fail(fmt.Errorf("cookie: %w", err))
		return r.done()
	}
	s.setStatus(StatusInfo, "stored %d cookie(s)", n)
	return r.done()
}

func (r *Router) cmdCookies(string) Routed {
	s := r.session
	all := s.jar.All()
	if len(all) == 0 {
		s.setStatus(StatusInfo, "no cookies")
		return r.done()
	}
	parts := make([]string, 0, len(all))
	for _, c := range all {
		parts = append(parts, c.String())
	}
	s.setStatus(StatusInfo, "%s", strings.Join(parts, "; "))
	return r.done()
}

func (r *Router) cmdQuit(string) Routed {
	return Routed{Action: ActionQuit, Pane: r.session.Focused()}
}

// Import parses a curl command and, on success, overwrites the panes, method
// and auth. An empty text reads the clipboard. On failure nothing changes.
func (s *Session) Import(text string) (*importer.ParseResult, error) {
	if strings.TrimSpace(text) == "" {
		clip, err := s.clipboard.ReadAll()
		if err != nil {
			err = fmt.Errorf("import: read clipboard: %w", err)
			s.fail(err)
			return nil, err
		}
		text = clip
	}

	result, err := importer.ParseCurl(text)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.FromSpec(result.Spec)
	if result.Timeout > 0 {
		s.timeout = result.Timeout
	}
	for _, w := range result.Warnings {
		s.logger.Debug("curl import", "warning", w)
	}

	msg := fmt.Sprintf("imported %s %s", result.Spec.Method, result.Spec.URL)
	if n := len(result.Warnings); n > 0 {
		msg += fmt.Sprintf(" (%d warning(s): %s)", n, result.Warnings[0])
	}
	s.setStatus(StatusSuccess, "%s", msg)
	return result, nil
}

// Export renders the panes as a curl command and copies it to the clipboard.
func (s *Session) Export() (string, error) {
	spec, err := s.ToSpec()
	if err != nil {
		s.fail(err)
		return "", err
	}
	cmd, err := exporter.NewCurlExporter().ExportRequest(spec)
	if err != nil {
		s.fail(err)
		return "", err
	}
	if err := s.clipboard.WriteAll(cmd); err != nil {
		err = fmt.Errorf("export: write clipboard: %w", err)
		s.fail(err)
		return cmd, err
	}
	s.setStatus(StatusSuccess, "curl command copied to clipboard")
	return cmd, nil
}

func (s *Session) requestURL() string {
	return strings.TrimSpace(s.editors[PaneURL].Text())
}
