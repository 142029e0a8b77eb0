package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/vim"
)

func typeKeys(r *Router, text string) Routed {
	var last Routed
	for _, k := range vim.Keys(text) {
		last = r.Route(k)
	}
	return last
}

func runCommand(r *Router, line string) Routed {
	typeKeys(r, ":"+line)
	return r.Route(vim.NamedKey("enter"))
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *Session) {
	t.Helper()
	s := newTestSession(t, okSender(`{"ok":true}`), opts...)
	return NewRouter(s), s
}

func TestRouterEditing(t *testing.T) {
	t.Run("keys reach the focused pane only", func(t *testing.T) {
		r, s := newTestRouter(t)

		typeKeys(r, "ihttps://x.com")
		routed := r.Route(vim.NamedKey("esc"))

		assert.Equal(t, ActionEdit, routed.Action)
		assert.Equal(t, PaneURL, routed.Pane)
		assert.Equal(t, "https://x.com", s.Editor(PaneURL).Text())
		assert.Empty(t, s.Editor(PaneHeaders).Text())
		assert.Empty(t, s.Editor(PaneBody).Text())
	})

	t.Run("switching focus keeps the other pane's mode", func(t *testing.T) {
		r, s := newTestRouter(t)

		r.Route(vim.NamedKey(KeyNextPane))
		typeKeys(r, "v")
		assert.Equal(t, vim.ModeVisual, s.Editor(PaneHeaders).Mode())

		r.Route(vim.NamedKey("esc"))
		r.Route(vim.NamedKey(KeyNextPane))
		assert.Equal(t, PaneBody, s.Focused())
		typeKeys(r, "i")

		assert.Equal(t, vim.ModeInsert, s.Editor(PaneBody).Mode())
		assert.Equal(t, vim.ModeNormal, s.Editor(PaneHeaders).Mode())
		assert.Equal(t, vim.ModeNormal, s.Editor(PaneURL).Mode())
	})

	t.Run("enter is ignored in the URL pane", func(t *testing.T) {
		r, s := newTestRouter(t)

		typeKeys(r, "ia")
		r.Route(vim.NamedKey("enter"))
		typeKeys(r, "b")

		assert.Equal(t, "ab", s.Editor(PaneURL).Text())
	})

	t.Run("yank writes the clipboard", func(t *testing.T) {
		clip := &MemoryClipboard{}
		r, s := newTestRouter(t, WithClipboard(clip))
		s.Editor(PaneHeaders).SetText("Accept: */*")
		s.Focus(PaneHeaders)

		routed := typeKeys(r, "yy")

		assert.True(t, routed.Effect.HasYank)
		text, err := clip.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "Accept: */*", text)
	})
}

func TestRouterGlobalKeys(t *testing.T) {
	t.Run("quit works in every mode", func(t *testing.T) {
		r, _ := newTestRouter(t)

		assert.Equal(t, ActionQuit, r.Route(vim.NamedKey(KeyQuit)).Action)
		typeKeys(r, "i")
		assert.Equal(t, ActionQuit, r.Route(vim.NamedKey(KeyQuit)).Action)
		r.Route(vim.NamedKey("esc"))
		typeKeys(r, ":")
		assert.Equal(t, ActionQuit, r.Route(vim.NamedKey(KeyQuit)).Action)
	})

	t.Run("tab cycles panes in normal mode", func(t *testing.T) {
		r, s := newTestRouter(t)

		routed := r.Route(vim.NamedKey(KeyNextPane))
		assert.Equal(t, ActionFocus, routed.Action)
		assert.Equal(t, PaneHeaders, s.Focused())

		r.Route(vim.NamedKey(KeyNextPane))
		r.Route(vim.NamedKey(KeyNextPane))
		assert.Equal(t, PaneURL, s.Focused())

		r.Route(vim.NamedKey(KeyPrevPane))
		assert.Equal(t, PaneBody, s.Focused())
	})

	t.Run("tab inserts in insert mode", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Focus(PaneBody)

		typeKeys(r, "i")
		routed := r.Route(vim.NamedKey(KeyNextPane))

		assert.Equal(t, ActionEdit, routed.Action)
		assert.Equal(t, PaneBody, s.Focused())
		assert.Equal(t, "\t", s.Editor(PaneBody).Text())
	})

	t.Run("method cycling", func(t *testing.T) {
		r, s := newTestRouter(t)

		r.Route(vim.NamedKey(KeyNextMethod))
		assert.Equal(t, core.MethodPost, s.Method())
		r.Route(vim.NamedKey(KeyPrevMethod))
		r.Route(vim.NamedKey(KeyPrevMethod))
		assert.Equal(t, core.MethodOptions, s.Method())

		typeKeys(r, "i")
		r.Route(vim.NamedKey(KeyNextMethod))
		assert.Equal(t, core.MethodOptions, s.Method())
	})

	t.Run("send dispatches and returns the handle", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Editor(PaneURL).SetText("https://x.com")

		routed := r.Route(vim.NamedKey(KeySend))

		assert.Equal(t, ActionSend, routed.Action)
		require.NotNil(t, routed.Handle)
		record := s.Complete(routed.Handle)
		assert.Equal(t, 200, record.StatusCode())
	})

	t.Run("send from insert mode", func(t *testing.T) {
		r, s := newTestRouter(t)

		typeKeys(r, "ihttps://x.com")
		routed := r.Route(vim.NamedKey(KeySend))

		require.NotNil(t, routed.Handle)
		s.Complete(routed.Handle)
		assert.Equal(t, vim.ModeInsert, s.Editor(PaneURL).Mode())
	})

	t.Run("invalid send is absorbed", func(t *testing.T) {
		r, s := newTestRouter(t)

		routed := r.Route(vim.NamedKey(KeySend))

		assert.Equal(t, ActionNone, routed.Action)
		assert.Nil(t, routed.Handle)
		assert.Equal(t, StatusError, s.Status().Level)
	})

	t.Run("command mode swallows global keys", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Editor(PaneURL).SetText("https://x.com")

		typeKeys(r, ":")
		routed := r.Route(vim.NamedKey(KeySend))

		assert.Nil(t, routed.Handle)
		assert.Nil(t, s.InFlight())
		assert.Equal(t, vim.ModeCommand, s.Editor(PaneURL).Mode())
	})

	t.Run("cancel without request", func(t *testing.T) {
		r, s := newTestRouter(t)

		routed := r.Route(vim.NamedKey(KeyCancel))

		assert.Equal(t, ActionCancel, routed.Action)
		assert.Equal(t, StatusError, s.Status().Level)
	})
}

func TestRouterPaste(t *testing.T) {
	t.Run("curl pasted into the URL pane imports", func(t *testing.T) {
		r, s := newTestRouter(t)

		routed := r.RouteKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(`curl -X PUT https://x.com/a -d 'v=1'`), Paste: true})

		assert.Equal(t, ActionCommand, routed.Action)
		assert.Equal(t, core.MethodPut, s.Method())
		assert.Equal(t, "https://x.com/a", s.Editor(PaneURL).Text())
		assert.Equal(t, "v=1", s.Editor(PaneBody).Text())
	})

	t.Run("other text is inserted", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Focus(PaneBody)

		r.Paste(`curl https://x.com`)

		assert.Equal(t, "curl https://x.com", s.Editor(PaneBody).Text())
		assert.Equal(t, core.MethodGet, s.Method())
	})
}

func TestRouterKeyBursts(t *testing.T) {
	t.Run("runes read together move the cursor in normal mode", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Focus(PaneBody)
		s.Editor(PaneBody).SetText("line1\nline2\nline3")

		r.RouteKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("jj")})

		assert.Equal(t, "line1\nline2\nline3", s.Editor(PaneBody).Text())
		assert.Equal(t, 2, s.Editor(PaneBody).Buffer().Cursor().Line)
		assert.Equal(t, vim.ModeNormal, s.Editor(PaneBody).Mode())
	})

	t.Run("runes read together extend a visual selection", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Focus(PaneBody)
		s.Editor(PaneBody).SetText("line1\nline2\nline3")

		typeKeys(r, "v")
		r.RouteKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("jj")})

		assert.Equal(t, "line1\nline2\nline3", s.Editor(PaneBody).Text())
		assert.Equal(t, vim.ModeVisual, s.Editor(PaneBody).Mode())
		assert.Equal(t, 2, s.Editor(PaneBody).Buffer().Cursor().Line)
	})

	t.Run("runes read together are typed in insert mode", func(t *testing.T) {
		r, s := newTestRouter(t)

		typeKeys(r, "i")
		r.RouteKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("https://x.com")})

		assert.Equal(t, "https://x.com", s.Editor(PaneURL).Text())
		assert.Equal(t, vim.ModeInsert, s.Editor(PaneURL).Mode())
	})
}

func TestRouterCommands(t *testing.T) {
	t.Run("method", func(t *testing.T) {
		r, s := newTestRouter(t)

		routed := runCommand(r, "method patch")

		assert.Equal(t, ActionMethod, routed.Action)
		assert.True(t, routed.Effect.Submitted)
		assert.Equal(t, core.MethodPatch, s.Method())
		assert.Equal(t, vim.ModeNormal, s.Editor(PaneURL).Mode())
	})

	t.Run("bad method", func(t *testing.T) {
		r, s := newTestRouter(t)

		runCommand(r, "method FETCH")

		assert.Equal(t, core.MethodGet, s.Method())
		assert.Equal(t, StatusError, s.Status().Level)
	})

	t.Run("import of a pasted multi-line curl", func(t *testing.T) {
		r, s := newTestRouter(t)

		typeKeys(r, ":import ")
		r.RouteKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("curl -X POST \\\n  https://api.x.com/y \\\n  -d 'a=1'"), Paste: true})
		r.Route(vim.NamedKey("enter"))

		assert.Equal(t, "https://api.x.com/y", s.Editor(PaneURL).Text())
		assert.Equal(t, core.MethodPost, s.Method())
		assert.Equal(t, "a=1", s.Editor(PaneBody).Text())
	})

	t.Run("import", func(t *testing.T) {
		r, s := newTestRouter(t)

		runCommand(r, `import curl https://api.x.com/y -d "x=1"`)

		assert.Equal(t, core.MethodPost, s.Method())
		assert.Equal(t, "https://api.x.com/y", s.Editor(PaneURL).Text())
	})

	t.Run("send and cancel", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Editor(PaneURL).SetText("https://x.com")

		routed := runCommand(r, "send")
		require.NotNil(t, routed.Handle)
		assert.Equal(t, ActionSend, routed.Action)
		s.Complete(routed.Handle)

		assert.Equal(t, ActionCancel, runCommand(r, "cancel").Action)
	})

	t.Run("clear", func(t *testing.T) {
		r, s := newTestRouter(t)
		fillRequest(s, "https://x.com", "A: 1", "body")
		s.SetMethod(core.MethodPost)

		runCommand(r, "clear body")
		assert.Empty(t, s.Editor(PaneBody).Text())
		assert.Equal(t, "A: 1", s.Editor(PaneHeaders).Text())

		runCommand(r, "clear")
		assert.Empty(t, s.Editor(PaneURL).Text())

		runCommand(r, "clear all")
		assert.Empty(t, s.Editor(PaneHeaders).Text())
		assert.Equal(t, core.MethodGet, s.Method())

		runCommand(r, "clear nowhere")
		assert.Equal(t, StatusError, s.Status().Level)
	})

	t.Run("clear response", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Editor(PaneURL).SetText("https://x.com")
		h, _ := s.Send()
		s.Complete(h)
		require.NotNil(t, s.Response())

		runCommand(r, "clear response")

		assert.Nil(t, s.Response())
		assert.Nil(t, s.Latest())
		assert.Equal(t, "https://x.com", s.Editor(PaneURL).Text())
	})

	t.Run("timeout", func(t *testing.T) {
		r, s := newTestRouter(t)

		runCommand(r, "timeout 2s")
		assert.Equal(t, "2s", s.Timeout().String())

		runCommand(r, "timeout 1.5")
		assert.Equal(t, "1.5s", s.Timeout().String())

		runCommand(r, "timeout -1s")
		assert.Equal(t, StatusError, s.Status().Level)
		assert.Equal(t, "1.5s", s.Timeout().String())
	})

	t.Run("auth", func(t *testing.T) {
		r, s := newTestRouter(t)

		runCommand(r, "auth basic bob:secret")
		assert.Equal(t, core.AuthTypeBasic, s.Auth().Type)
		assert.Equal(t, "secret", s.Auth().Password)

		runCommand(r, "auth bearer abc")
		assert.Equal(t, "abc", s.Auth().Token)

		runCommand(r, "auth none")
		assert.True(t, s.Auth().IsZero())

		runCommand(r, "auth basic nocolon")
		assert.Equal(t, StatusError, s.Status().Level)
	})

	t.Run("export", func(t *testing.T) {
		clip := &MemoryClipboard{}
		r, s := newTestRouter(t, WithClipboard(clip))
		s.Editor(PaneURL).SetText("https://x.com")

		runCommand(r, "export")

		text, err := clip.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "curl https://x.com", text)
	})

	t.Run("jq", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Editor(PaneURL).SetText("https://x.com")
		h, _ := s.Send()
		s.Complete(h)

		runCommand(r, "jq .ok")

		_, out := s.Filter()
		assert.Equal(t, "true", out)
	})

	t.Run("cookies", func(t *testing.T) {
		r, s := newTestRouter(t)
		s.Editor(PaneURL).SetText("https://api.example.com/login")

		runCommand(r, "cookie session=abc; theme=dark")
		assert.Equal(t, 2, s.Cookies().Len())

		runCommand(r, "cookies")
		assert.Contains(t, s.Status().Text, "session=abc")
	})

	t.Run("cookie without host", func(t *testing.T) {
		r, s := newTestRouter(t)

		runCommand(r, "cookie a=1")

		assert.Equal(t, StatusError, s.Status().Level)
		assert.Zero(t, s.Cookies().Len())
	})

	t.Run("quit", func(t *testing.T) {
		r, _ := newTestRouter(t)

		assert.Equal(t, ActionQuit, runCommand(r, "q").Action)
		assert.Equal(t, ActionQuit, runCommand(r, "quit").Action)
	})

	t.Run("unknown command suggests", func(t *testing.T) {
		r, s := newTestRouter(t)

		routed := runCommand(r, "hist 2")

		assert.Equal(t, ActionCommand, routed.Action)
		assert.Equal(t, StatusError, s.Status().Level)
		assert.Contains(t, s.Status().Text, "unknown command: hist")
		assert.Contains(t, s.Status().Text, "history")
	})

	t.Run("unknown command without match", func(t *testing.T) {
		r, s := newTestRouter(t)

		runCommand(r, "zzz")

		assert.Equal(t, "unknown command: zzz", s.Status().Text)
	})

	t.Run("escape discards the command line", func(t *testing.T) {
		r, s := newTestRouter(t)

		typeKeys(r, ":method post")
		r.Route(vim.NamedKey("esc"))

		assert.Equal(t, core.MethodGet, s.Method())
		assert.Equal(t, vim.ModeNormal, s.Editor(PaneURL).Mode())
	})
}
