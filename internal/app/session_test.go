package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/history"
	"github.com/tednaaa/resto/internal/history/sqlite"
	"github.com/tednaaa/resto/internal/pipeline"
	"github.com/tednaaa/resto/internal/vim"
)

func okSender(body string) pipeline.SenderFunc {
	return func(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error) {
		headers := core.NewHeaders()
		headers.Set("Content-Type", "application/json")
		return core.NewSuccessRecord(spec, 200, "200 OK", headers, []byte(body), 5*time.Millisecond), nil
	}
}

// blockingSender returns a successful body only if the context survives
// until release is closed.
func blockingSender(release <-chan struct{}) pipeline.SenderFunc {
	return func(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return core.NewSuccessRecord(spec, 200, "200 OK", nil, []byte("late"), time.Millisecond), nil
		}
	}
}

func newTestSession(t *testing.T, sender pipeline.Sender, opts ...Option) *Session {
	t.Helper()
	s := NewSession(pipeline.New(sender), opts...)
	t.Cleanup(s.Close)
	return s
}

func fillRequest(s *Session, url, headers, body string) {
	s.Editor(PaneURL).SetText(url)
	s.Editor(PaneHeaders).SetText(headers)
	s.Editor(PaneBody).SetText(body)
}

func TestNewSession(t *testing.T) {
	t.Run("starts empty in normal mode", func(t *testing.T) {
		s := newTestSession(t, okSender(""))

		assert.Equal(t, PaneURL, s.Focused())
		assert.Equal(t, core.MethodGet, s.Method())
		assert.Equal(t, pipeline.DefaultTimeout, s.Timeout())
		assert.Nil(t, s.InFlight())
		assert.Nil(t, s.Response())
		for _, p := range Panes {
			assert.Equal(t, vim.ModeNormal, s.Editor(p).Mode())
			assert.Empty(t, s.Editor(p).Text())
		}
		assert.True(t, s.Editor(PaneURL).SingleLine())
		assert.False(t, s.Editor(PaneBody).SingleLine())
	})

	t.Run("pre-fills from a request", func(t *testing.T) {
		spec := core.NewRequestSpec(core.MethodPut, "https://api.example.com/items/1")
		spec.SetHeader("Accept", "application/json")
		spec.Body = []byte(`{"a":1}`)

		s := newTestSession(t, okSender(""), WithRequest(spec), WithTimeout(3*time.Second))

		assert.Equal(t, core.MethodPut, s.Method())
		assert.Equal(t, "https://api.example.com/items/1", s.Editor(PaneURL).Text())
		assert.Equal(t, "Accept: application/json", s.Editor(PaneHeaders).Text())
		assert.Equal(t, `{"a":1}`, s.Editor(PaneBody).Text())
		assert.Equal(t, 3*time.Second, s.Timeout())
	})
}

func TestSessionToSpec(t *testing.T) {
	t.Run("assembles the three panes", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		s.SetMethod(core.MethodPost)
		s.SetAuth(core.NewBearerAuth("tok"))
		fillRequest(s, "  https://api.x.com/y  ", "Content-Type: application/json\n\n# comment\nX-Trace: a:b", `{"a":1}`)

		spec, err := s.ToSpec()
		require.NoError(t, err)

		assert.Equal(t, core.MethodPost, spec.Method)
		assert.Equal(t, "https://api.x.com/y", spec.URL)
		assert.Equal(t, []core.Header{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "X-Trace", Value: "a:b"},
		}, spec.Headers.Pairs())
		assert.Equal(t, `{"a":1}`, string(spec.Body))
		assert.Equal(t, "tok", spec.Auth.Token)
	})

	t.Run("infers JSON content type", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		fillRequest(s, "https://x.com", "", `[1, 2]`)

		spec, err := s.ToSpec()
		require.NoError(t, err)
		assert.Equal(t, "application/json", spec.ContentType)
	})

	t.Run("blank body is no body", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		fillRequest(s, "https://x.com", "", "  \n ")

		spec, err := s.ToSpec()
		require.NoError(t, err)
		assert.False(t, spec.HasBody())
	})

	t.Run("rejects a header line without colon", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		fillRequest(s, "https://x.com", "Accept: */*\nbroken", "")

		_, err := s.ToSpec()
		var invalid *core.InvalidRequestSpecError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "line 2")
	})

	t.Run("rejects an empty URL", func(t *testing.T) {
		s := newTestSession(t, okSender(""))

		_, err := s.ToSpec()
		var invalid *core.InvalidRequestSpecError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("round trips through FromSpec", func(t *testing.T) {
		spec := core.NewRequestSpec(core.MethodPatch, "https://x.com/a")
		spec.AddHeader("X-A", "1")
		spec.AddHeader("X-A", "2")
		spec.Body = []byte("name=a")
		spec.ContentType = "application/x-www-form-urlencoded"
		spec.Auth = core.NewBasicAuth("user", "pass")

		s := newTestSession(t, okSender(""))
		s.FromSpec(spec)
		got, err := s.ToSpec()
		require.NoError(t, err)

		assert.Equal(t, spec, got)
	})

	t.Run("imported content type is dropped once the body is edited", func(t *testing.T) {
		spec := core.NewRequestSpec(core.MethodPost, "https://x.com/a")
		spec.Body = []byte("a=1")
		spec.ContentType = "application/x-www-form-urlencoded"

		s := newTestSession(t, okSender(""))
		s.FromSpec(spec)
		s.Editor(PaneBody).SetText(`{"a":1}`)

		got, err := s.ToSpec()
		require.NoError(t, err)
		assert.Equal(t, "application/json", got.ContentType)

		s.Editor(PaneBody).SetText("a=1")
		got, err = s.ToSpec()
		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", got.ContentType)
	})
}

func TestSessionSend(t *testing.T) {
	t.Run("records a successful response", func(t *testing.T) {
		s := newTestSession(t, okSender(`{"ok":true}`))
		fillRequest(s, "https://x.com/ok", "", "")

		h, err := s.Send()
		require.NoError(t, err)
		assert.Same(t, h, s.InFlight())
		assert.True(t, s.Snapshot().InFlight)

		record := s.Complete(h)
		require.NotNil(t, record)
		assert.Nil(t, s.InFlight())
		assert.Same(t, record, s.Response())
		assert.Same(t, record, s.Latest())
		assert.Equal(t, StatusSuccess, s.Status().Level)
		assert.Contains(t, s.Status().Text, "200 OK")
	})

	t.Run("invalid request is not dispatched", func(t *testing.T) {
		var calls atomic.Int32
		s := newTestSession(t, pipeline.SenderFunc(func(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error) {
			calls.Add(1)
			return nil, nil
		}))
		fillRequest(s, "ftp://x.com", "", "")

		h, err := s.Send()
		assert.Nil(t, h)
		var invalid *core.InvalidRequestSpecError
		assert.ErrorAs(t, err, &invalid)
		assert.Equal(t, StatusError, s.Status().Level)
		assert.Nil(t, s.InFlight())
		assert.Zero(t, calls.Load())
	})

	t.Run("rejects a second send while one is in flight", func(t *testing.T) {
		release := make(chan struct{})
		s := newTestSession(t, blockingSender(release))
		fillRequest(s, "https://x.com/slow", "", "")

		h, err := s.Send()
		require.NoError(t, err)

		_, err = s.Send()
		assert.ErrorIs(t, err, ErrRequestInFlight)
		assert.Same(t, h, s.InFlight())

		close(release)
		record := s.Complete(h)
		assert.Equal(t, core.ResultSuccess, record.Result())

		_, err = s.Send()
		assert.NoError(t, err)
	})

	t.Run("ignores a stale handle", func(t *testing.T) {
		s := newTestSession(t, okSender("{}"))
		fillRequest(s, "https://x.com", "", "")

		h, err := s.Send()
		require.NoError(t, err)
		require.NotNil(t, s.Complete(h))
		assert.Nil(t, s.Complete(h))
		assert.Nil(t, s.Complete(nil))
	})

	t.Run("network error keeps the previous response", func(t *testing.T) {
		var fail atomic.Bool
		ok := okSender(`{"n":1}`)
		s := newTestSession(t, pipeline.SenderFunc(func(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error) {
			if fail.Load() {
				return nil, &core.NetworkError{Reason: "connection refused"}
			}
			return ok(ctx, spec)
		}))
		fillRequest(s, "https://x.com", "", "")

		h, _ := s.Send()
		first := s.Complete(h)

		fail.Store(true)
		h, _ = s.Send()
		failed := s.Complete(h)

		assert.Equal(t, core.ResultNetworkError, failed.Result())
		assert.Same(t, first, s.Response())
		assert.Same(t, failed, s.Latest())
		assert.Equal(t, StatusError, s.Status().Level)
		assert.Contains(t, s.Status().Text, "connection refused")
	})

	t.Run("timeout yields Timeout with no body", func(t *testing.T) {
		s := newTestSession(t, blockingSender(make(chan struct{})), WithTimeout(20*time.Millisecond))
		fillRequest(s, "https://x.com/slow", "", "")

		h, err := s.Send()
		require.NoError(t, err)
		record := s.Complete(h)

		assert.Equal(t, core.ResultTimeout, record.Result())
		assert.Empty(t, record.Body())
		assert.Nil(t, s.Response())
	})
}

func TestSessionCancel(t *testing.T) {
	t.Run("cancel before completion yields Cancelled", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		s := newTestSession(t, okSender(`{"first":true}`))
		fillRequest(s, "https://x.com", "", "")
		h, _ := s.Send()
		first := s.Complete(h)

		s.pipeline = pipeline.New(blockingSender(release))
		h, err := s.Send()
		require.NoError(t, err)
		require.NoError(t, s.Cancel())
		record := s.Complete(h)

		assert.Equal(t, core.ResultCancelled, record.Result())
		assert.Empty(t, record.Body())
		assert.Zero(t, record.StatusCode())
		assert.Same(t, first, s.Response())
		assert.Equal(t, "request cancelled", s.Status().Text)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		assert.ErrorIs(t, s.Cancel(), ErrNoRequest)
		assert.Equal(t, StatusError, s.Status().Level)
	})
}

func TestSessionImport(t *testing.T) {
	t.Run("overwrites panes, method and auth", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		fillRequest(s, "https://old.example.com", "X-Old: 1", "old")

		result, err := s.Import(`curl -X POST https://api.x.com/y -H "Content-Type: application/json" -d '{"a":1}' -u bob:secret -m 7`)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, core.MethodPost, s.Method())
		assert.Equal(t, "https://api.x.com/y", s.Editor(PaneURL).Text())
		assert.Equal(t, "Content-Type: application/json", s.Editor(PaneHeaders).Text())
		assert.Equal(t, `{"a":1}`, s.Editor(PaneBody).Text())
		assert.Equal(t, "bob", s.Auth().Username)
		assert.Equal(t, 7*time.Second, s.Timeout())
		assert.Equal(t, StatusSuccess, s.Status().Level)
	})

	t.Run("failure leaves everything untouched", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		s.SetMethod(core.MethodDelete)
		s.SetAuth(core.NewBearerAuth("keep"))
		fillRequest(s, "https://keep.example.com", "X-Keep: 1", "keep")
		before := s.Snapshot()

		_, err := s.Import(`curl https://x.com -H "no-colon-here"`)
		require.Error(t, err)

		after := s.Snapshot()
		assert.Equal(t, before.Panes, after.Panes)
		assert.Equal(t, core.MethodDelete, s.Method())
		assert.Equal(t, "keep", s.Auth().Token)
		assert.Equal(t, StatusError, s.Status().Level)
	})

	t.Run("reads the clipboard when no text is given", func(t *testing.T) {
		clip := &MemoryClipboard{}
		require.NoError(t, clip.WriteAll("curl https://api.x.com/y -d x=1"))
		s := newTestSession(t, okSender(""), WithClipboard(clip))

		_, err := s.Import("")
		require.NoError(t, err)
		assert.Equal(t, core.MethodPost, s.Method())
		assert.Equal(t, "x=1", s.Editor(PaneBody).Text())
	})

	t.Run("empty clipboard is an error", func(t *testing.T) {
		s := newTestSession(t, okSender(""))

		_, err := s.Import(" ")
		assert.ErrorIs(t, err, ErrClipboardEmpty)
	})

	t.Run("import is one undo step per pane", func(t *testing.T) {
		s := newTestSession(t, okSender(""))
		fillRequest(s, "https://before.example.com", "", "")

		_, err := s.Import("curl https://after.example.com")
		require.NoError(t, err)
		s.Editor(PaneURL).Handle(vim.RuneKey('u'))

		assert.Equal(t, "https://before.example.com", s.Editor(PaneURL).Text())
	})
}

func TestSessionExport(t *testing.T) {
	clip := &MemoryClipboard{}
	s := newTestSession(t, okSender(""), WithClipboard(clip))
	s.SetMethod(core.MethodPost)
	fillRequest(s, "https://api.x.com/y", "Content-Type: application/json", `{"a":1}`)

	cmd, err := s.Export()
	require.NoError(t, err)

	copied, err := clip.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, cmd, copied)
	assert.Contains(t, cmd, "curl https://api.x.com/y")
	assert.Contains(t, cmd, "--data-raw")
}

func TestSessionFilter(t *testing.T) {
	t.Run("filters the last response", func(t *testing.T) {
		s := newTestSession(t, okSender(`{"items":[{"id":1},{"id":2}]}`))
		fillRequest(s, "https://x.com", "", "")
		h, _ := s.Send()
		s.Complete(h)

		require.NoError(t, s.SetFilter(".items[].id"))
		expr, out := s.Filter()
		assert.Equal(t, ".items[].id", expr)
		assert.Equal(t, "1\n2", out)
	})

	t.Run("applies to later responses", func(t *testing.T) {
		s := newTestSession(t, okSender(`{"name":"resto"}`))
		require.NoError(t, s.SetFilter(".name"))

		fillRequest(s, "https://x.com", "", "")
		h, _ := s.Send()
		s.Complete(h)

		_, out := s.Filter()
		assert.Equal(t, `"resto"`, out)
	})

	t.Run("bad expression sets an error status", func(t *testing.T) {
		s := newTestSession(t, okSender(`{}`))
		fillRequest(s, "https://x.com", "", "")
		h, _ := s.Send()
		s.Complete(h)

		assert.Error(t, s.SetFilter(".["))
		assert.Equal(t, StatusError, s.Status().Level)
	})
}

func TestSessionHistory(t *testing.T) {
	newStore := func(t *testing.T) history.Store {
		t.Helper()
		store, err := sqlite.NewInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	}

	t.Run("saves completed requests and prunes to the limit", func(t *testing.T) {
		store := newStore(t)
		s := newTestSession(t, okSender("{}"), WithHistory(store, 2))

		for _, u := range []string{"https://x.com/1", "https://x.com/2", "https://x.com/3"} {
			fillRequest(s, u, "", "")
			h, err := s.Send()
			require.NoError(t, err)
			s.Complete(h)
			s.saves.Wait()
		}

		count, err := store.Count(context.Background(), history.QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("loads the n-th most recent request", func(t *testing.T) {
		store := newStore(t)
		s := newTestSession(t, okSender("{}"), WithHistory(store, 0))

		s.SetMethod(core.MethodPost)
		fillRequest(s, "https://x.com/first", "X-N: 1", "one")
		h, _ := s.Send()
		s.Complete(h)
		s.saves.Wait()

		s.SetMethod(core.MethodGet)
		fillRequest(s, "https://x.com/second", "", "")
		h, _ = s.Send()
		s.Complete(h)

		entry, err := s.LoadHistory(2)
		require.NoError(t, err)
		assert.Equal(t, "https://x.com/first", entry.RequestURL)
		assert.Equal(t, core.MethodPost, s.Method())
		assert.Equal(t, "https://x.com/first", s.Editor(PaneURL).Text())
		assert.Equal(t, "X-N: 1", s.Editor(PaneHeaders).Text())
		assert.Equal(t, "one", s.Editor(PaneBody).Text())
	})

	t.Run("missing entry", func(t *testing.T) {
		s := newTestSession(t, okSender("{}"), WithHistory(newStore(t), 0))

		_, err := s.LoadHistory(1)
		assert.ErrorIs(t, err, history.ErrNotFound)
	})

	t.Run("disabled", func(t *testing.T) {
		s := newTestSession(t, okSender("{}"))

		_, err := s.LoadHistory(1)
		assert.ErrorIs(t, err, ErrNoHistory)
	})
}

func TestSessionSnapshot(t *testing.T) {
	s := newTestSession(t, okSender(""))
	fillRequest(s, "https://x.com", "A: 1\nB: 2", "")
	s.Focus(PaneHeaders)
	ed := s.Editor(PaneHeaders)
	ed.Handle(vim.RuneKey('v'))
	ed.Handle(vim.RuneKey('l'))

	snap := s.Snapshot()

	assert.Equal(t, PaneHeaders, snap.Focus)
	assert.Equal(t, vim.ModeVisual, snap.Mode)
	headers := snap.Pane(PaneHeaders)
	assert.True(t, headers.Focused)
	assert.True(t, headers.HasSelection)
	assert.Equal(t, []string{"A: 1", "B: 2"}, headers.Lines)
	assert.False(t, snap.Pane(PaneURL).Focused)
	assert.Equal(t, vim.ModeNormal, snap.Pane(PaneURL).Mode)
	assert.Equal(t, "No Auth", snap.Auth)
}
