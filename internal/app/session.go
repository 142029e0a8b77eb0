// Package app holds the interactive session: one modal editor per pane, the
// request pipeline, and the state the view renders.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tednaaa/resto/internal/cookies"
	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/filter"
	"github.com/tednaaa/resto/internal/history"
	"github.com/tednaaa/resto/internal/pipeline"
	"github.com/tednaaa/resto/internal/vim"
)

// Common errors
var (
	ErrRequestInFlight = errors.New("a request is already in flight")
	ErrNoRequest       = errors.New("no request in flight")
	ErrNoHistory       = errors.New("history is disabled")
)

const historySaveTimeout = 5 * time.Second

// StatusLevel classifies a status message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusError
)

// Status is the one-line message shown under the panes.
type Status struct {
	Text  string
	Level StatusLevel
}

// Session is the application state. It is not safe for concurrent use: the
// view's update loop owns it. Only history writes leave that loop.
type Session struct {
	editors map[Pane]*vim.Editor
	focus   Pane

	method      core.Method
	auth        *core.Auth
	contentType string
	// typedBody is the body contentType was imported with.
	typedBody string
	timeout     time.Duration

	pipeline  *pipeline.Pipeline
	inFlight  *pipeline.Handle
	response  *core.ResponseRecord
	latest    *core.ResponseRecord
	jqExpr    string
	jqOutput  string
	status    Status
	clipboard Clipboard
	jar       *cookies.Jar

	history      history.Store
	historyLimit int
	saves        sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClipboard sets the clipboard collaborator.
func WithClipboard(c Clipboard) Option {
	return func(s *Session) {
		if c != nil {
			s.clipboard = c
		}
	}
}

// WithHistory enables request history. A positive limit prunes the store to
// that many entries after each save.
func WithHistory(store history.Store, limit int) Option {
	return func(s *Session) {
		s.history = store
		s.historyLimit = limit
	}
}

// WithCookieJar shares a cookie jar with the HTTP client.
func WithCookieJar(jar *cookies.Jar) Option {
	return func(s *Session) {
		if jar != nil {
			s.jar = jar
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithRequest pre-fills the panes.
func WithRequest(spec *core.RequestSpec) Option {
	return func(s *Session) {
		if spec != nil {
			s.FromSpec(spec)
		}
	}
}

// NewSession creates a session dispatching through p.
func NewSession(p *pipeline.Pipeline, opts ...Option) *Session {
	s := &Session{
		editors: map[Pane]*vim.Editor{
			PaneURL:     vim.NewEditor(vim.WithSingleLine()),
			PaneHeaders: vim.NewEditor(),
			PaneBody:    vim.NewEditor(),
		},
		focus:     PaneURL,
		method:    core.MethodGet,
		timeout:   p.DefaultTimeout(),
		pipeline:  p,
		clipboard: &MemoryClipboard{},
		jar:       cookies.NewJar(),
		ctx:       context.Background(),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(s.ctx)
	return s
}

// Editor returns the editor owning pane.
func (s *Session) Editor(pane Pane) *vim.Editor {
	return s.editors[pane]
}

// Focused returns the focused pane.
func (s *Session) Focused() Pane {
	return s.focus
}

// FocusedEditor returns the editor of the focused pane.
func (s *Session) FocusedEditor() *vim.Editor {
	return s.editors[s.focus]
}

// Focus moves focus to pane. Other panes keep their modes.
func (s *Session) Focus(pane Pane) {
	if _, ok := s.editors[pane]; ok {
		s.focus = pane
	}
}

// Method returns the request method.
func (s *Session) Method() core.Method {
	return s.method
}

// SetMethod changes the request method.
func (s *Session) SetMethod(m core.Method) {
	if m.Valid() {
		s.method = m
	}
}

// Auth returns a copy of the request auth.
func (s *Session) Auth() *core.Auth {
	return s.auth.Clone()
}

// SetAuth replaces the request auth. nil removes it.
func (s *Session) SetAuth(a *core.Auth) {
	if a.IsZero() {
		s.auth = nil
		return
	}
	s.auth = a.Clone()
}

// Timeout returns the per-request timeout.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// SetTimeout changes the per-request timeout.
func (s *Session) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Clipboard returns the clipboard collaborator.
func (s *Session) Clipboard() Clipboard {
	return s.clipboard
}

// Cookies returns the cookie jar.
func (s *Session) Cookies() *cookies.Jar {
	return s.jar
}

// History returns the history store, nil when disabled.
func (s *Session) History() history.Store {
	return s.history
}

// InFlight returns the running request, if any.
func (s *Session) InFlight() *pipeline.Handle {
	return s.inFlight
}

// Response returns the last successful response. Failed or cancelled
// requests do not replace it.
func (s *Session) Response() *core.ResponseRecord {
	return s.response
}

// Latest returns the record of the most recent request, whatever its result.
func (s *Session) Latest() *core.ResponseRecord {
	return s.latest
}

// Status returns the current status message.
func (s *Session) Status() Status {
	return s.status
}

func (s *Session) setStatus(level StatusLevel, format string, args ...any) {
	s.status = Status{Text: fmt.Sprintf(format, args...), Level: level}
}

func (s *Session) fail(err error) {
	s.setStatus(StatusError, "%s", err.Error())
}

// Send assembles a request from the panes and dispatches it. Only one
// request may be in flight.
func (s *Session) Send() (*pipeline.Handle, error) {
	if s.inFlight != nil {
		s.fail(ErrRequestInFlight)
		return nil, ErrRequestInFlight
	}

	spec, err := s.ToSpec()
	if err != nil {
		s.fail(err)
		return nil, err
	}

	h, err := s.pipeline.Execute(s.ctx, spec, s.timeout)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.inFlight = h
	s.setStatus(StatusInfo, "sending %s %s", spec.Method, spec.URL)
	return h, nil
}

// Cancel aborts the in-flight request. The record still arrives through
// Complete.
func (s *Session) Cancel() error {
	if s.inFlight == nil {
		s.fail(ErrNoRequest)
		return ErrNoRequest
	}
	if s.inFlight.Cancel() {
		s.setStatus(StatusInfo, "cancelling request")
	}
	return nil
}

// Complete records the outcome of h. It blocks until h is done and ignores
// handles that are not the session's in-flight request.
func (s *Session) Complete(h *pipeline.Handle) *core.ResponseRecord {
	if h == nil || h != s.inFlight {
		return nil
	}
	record := h.Wait()
	s.inFlight = nil
	s.latest = record

	switch record.Result() {
	case core.ResultSuccess:
		s.response = record
		s.jqOutput = ""
		if s.jqExpr != "" {
			s.runFilter()
		}
		level := StatusSuccess
		if record.IsClientError() || record.IsServerError() {
			level = StatusError
		}
		s.setStatus(level, "%s in %s, %s", record.Status(), record.Elapsed().Round(time.Millisecond), record.FormattedSize())
	case core.ResultCancelled:
		s.setStatus(StatusInfo, "request cancelled")
	case core.ResultTimeout:
		s.setStatus(StatusError, "%s: %s", record.Err().Error(), record.Reason())
	default:
		s.setStatus(StatusError, "%s", record.Err().Error())
	}

	s.logger.Debug("request completed", "id", record.ID(), "result", record.Result(), "status", record.StatusCode())
	s.saveHistory(h.Spec(), record)
	return record
}

// ClearResponse drops the response and the filter output.
func (s *Session) ClearResponse() {
	s.response = nil
	s.latest = nil
	s.jqOutput = ""
}

// SetFilter sets the jq expression applied to JSON responses. An empty
// expression removes the filter.
func (s *Session) SetFilter(expr string) error {
	s.jqExpr = expr
	s.jqOutput = ""
	if expr == "" {
		s.setStatus(StatusInfo, "jq filter cleared")
		return nil
	}
	if s.response == nil {
		s.setStatus(StatusInfo, "jq filter set: %s", expr)
		return nil
	}
	return s.runFilter()
}

// Filter returns the jq expression and its output on the last response.
func (s *Session) Filter() (expr, output string) {
	return s.jqExpr, s.jqOutput
}

func (s *Session) runFilter() error {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()

	out, err := filter.Apply(ctx, s.jqExpr, s.response.Body())
	if err != nil {
		s.fail(err)
		return err
	}
	s.jqOutput = out
	s.setStatus(StatusSuccess, "jq: %s", s.jqExpr)
	return nil
}

func (s *Session) saveHistory(spec *core.RequestSpec, record *core.ResponseRecord) {
	if s.history == nil {
		return
	}
	entry := history.NewEntry(spec, record)

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
		defer cancel()

		if _, err := s.history.Add(ctx, entry); err != nil {
			s.logger.Warn("save history", "err", err)
			return
		}
		if s.historyLimit > 0 {
			if _, err := s.history.Prune(ctx, history.PruneOptions{KeepLast: s.historyLimit}); err != nil {
				s.logger.Warn("prune history", "err", err)
			}
		}
	}()
}

// LoadHistory loads the n-th most recent request (1-based) into the panes.
func (s *Session) LoadHistory(n int) (history.Entry, error) {
	if s.history == nil {
		s.fail(ErrNoHistory)
		return history.Entry{}, ErrNoHistory
	}
	if n < 1 {
		n = 1
	}

	s.saves.Wait()
	ctx, cancel := context.WithTimeout(s.ctx, historySaveTimeout)
	defer cancel()

	entries, err := s.history.List(ctx, history.QueryOptions{Limit: 1, Offset: n - 1})
	if err != nil {
		err = fmt.Errorf("load history: %w", err)
		s.fail(err)
		return history.Entry{}, err
	}
	if len(entries) == 0 {
		err := fmt.Errorf("history entry %d: %w", n, history.ErrNotFound)
		s.fail(err)
		return history.Entry{}, err
	}

	entry := entries[0]
	s.FromSpec(entry.Spec())
	s.setStatus(StatusInfo, "loaded %s", entry.Summary())
	return entry, nil
}

// Close cancels the in-flight request and waits for pending history writes.
func (s *Session) Close() {
	if s.inFlight != nil {
		s.inFlight.Cancel()
	}
	s.cancel()
	s.saves.Wait()
}
