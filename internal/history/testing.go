package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store implementation.
// Use this to verify that a Store implementation correctly implements the interface.
func RunStoreTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("Add", func(t *testing.T) {
		runAddTests(t, newStore)
	})
	t.Run("Get", func(t *testing.T) {
		runGetTests(t, newStore)
	})
	t.Run("List", func(t *testing.T) {
		runListTests(t, newStore)
	})
	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, newStore)
	})
	t.Run("Prune", func(t *testing.T) {
		runPruneTests(t, newStore)
	})
	t.Run("Closed", func(t *testing.T) {
		runClosedTests(t, newStore)
	})
}

func addEntries(t *testing.T, store Store, entries ...Entry) []string {
	t.Helper()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Result == "" {
			e.Result = "success"
		}
		if e.RequestMethod == "" {
			e.RequestMethod = "GET"
		}
		if e.RequestURL == "" {
			e.RequestURL = "https://api.example.com"
		}
		id, err := store.Add(context.Background(), e)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func runAddTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("adds entry and returns ID", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		id, err := store.Add(context.Background(), Entry{
			Timestamp:      time.Now(),
			RequestMethod:  "GET",
			RequestURL:     "https://api.example.com/users",
			Result:         "success",
			ResponseStatus: 200,
			ResponseTime:   150,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("keeps a provided ID", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		ids := addEntries(t, store, Entry{ID: "fixed-id"})

		assert.Equal(t, []string{"fixed-id"}, ids)
	})

	t.Run("round trips every field", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		entry := Entry{
			Timestamp:          time.Now(),
			RequestMethod:      "POST",
			RequestURL:         "https://api.example.com/users",
			RequestHeaders:     []Header{{"Content-Type", "application/json"}, {"X-Trace", "a"}, {"X-Trace", "b"}},
			RequestBody:        `{"name": "John"}`,
			RequestContentType: "application/json",
			Result:             "success",
			ResponseStatus:     201,
			ResponseStatusText: "Created",
			ResponseHeaders:    []Header{{"X-Request-Id", "abc123"}},
			ResponseBody:       `{"id": 1, "name": "John"}`,
			ResponseTime:       234,
			ResponseSize:       25,
		}

		id, err := store.Add(context.Background(), entry)
		require.NoError(t, err)

		got, err := store.Get(context.Background(), id)
		require.NoError(t, err)

		assert.Equal(t, id, got.ID)
		assert.WithinDuration(t, entry.Timestamp, got.Timestamp, time.Second)
		assert.Equal(t, entry.RequestMethod, got.RequestMethod)
		assert.Equal(t, entry.RequestURL, got.RequestURL)
		assert.Equal(t, entry.RequestHeaders, got.RequestHeaders)
		assert.Equal(t, entry.RequestBody, got.RequestBody)
		assert.Equal(t, entry.RequestContentType, got.RequestContentType)
		assert.Equal(t, entry.Result, got.Result)
		assert.Equal(t, entry.ResponseStatus, got.ResponseStatus)
		assert.Equal(t, entry.ResponseStatusText, got.ResponseStatusText)
		assert.Equal(t, entry.ResponseHeaders, got.ResponseHeaders)
		assert.Equal(t, entry.ResponseBody, got.ResponseBody)
		assert.Equal(t, entry.ResponseTime, got.ResponseTime)
		assert.Equal(t, entry.ResponseSize, got.ResponseSize)
	})

	t.Run("stores failures", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		ids := addEntries(t, store, Entry{Result: "timeout", Reason: "no response within 1s"})

		got, err := store.Get(context.Background(), ids[0])
		require.NoError(t, err)
		assert.Equal(t, "timeout", got.Result)
		assert.Equal(t, "no response within 1s", got.Reason)
		assert.Zero(t, got.ResponseStatus)
	})
}

func runGetTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("returns not found for unknown ID", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects empty ID", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "")

		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func runListTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("lists newest first", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for i := 0; i < 5; i++ {
			addEntries(t, store, Entry{
				Timestamp:  now.Add(time.Duration(i) * time.Second),
				RequestURL: fmt.Sprintf("https://api.example.com/%d", i),
			})
		}

		entries, err := store.List(context.Background(), QueryOptions{})

		require.NoError(t, err)
		require.Len(t, entries, 5)
		assert.Equal(t, "https://api.example.com/4", entries[0].RequestURL)
		assert.Equal(t, "https://api.example.com/0", entries[4].RequestURL)
	})

	t.Run("same timestamp keeps insertion order", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		ts := time.Now()
		addEntries(t, store,
			Entry{Timestamp: ts, RequestURL: "https://a.example.com"},
			Entry{Timestamp: ts, RequestURL: "https://b.example.com"},
		)

		entries, err := store.List(context.Background(), QueryOptions{})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "https://b.example.com", entries[0].RequestURL)
	})

	t.Run("filters by method", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		for _, method := range []string{"GET", "POST", "GET", "PUT", "GET"} {
			addEntries(t, store, Entry{RequestMethod: method})
		}

		entries, err := store.List(context.Background(), QueryOptions{Method: "GET"})

		require.NoError(t, err)
		assert.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, "GET", e.RequestMethod)
		}
	})

	t.Run("filters by result", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addEntries(t, store, Entry{}, Entry{Result: "cancelled"}, Entry{Result: "timeout"})

		entries, err := store.List(context.Background(), QueryOptions{Result: "cancelled"})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "cancelled", entries[0].Result)
	})

	t.Run("filters by URL pattern", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addEntries(t, store,
			Entry{RequestURL: "https://api.example.com/users/1"},
			Entry{RequestURL: "https://api.example.com/posts/1"},
		)

		entries, err := store.List(context.Background(), QueryOptions{URLPattern: "%/users/%"})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].RequestURL, "users")
	})

	t.Run("searches URL and bodies", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addEntries(t, store,
			Entry{RequestURL: "https://api.example.com/users"},
			Entry{RequestBody: `{"user":"john"}`},
			Entry{ResponseBody: "nothing here"},
		)

		entries, err := store.List(context.Background(), QueryOptions{Search: "user"})

		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("paginates", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for i := 0; i < 10; i++ {
			addEntries(t, store, Entry{
				Timestamp:  now.Add(time.Duration(i) * time.Second),
				RequestURL: fmt.Sprintf("https://api.example.com/%d", i),
			})
		}

		page, err := store.List(context.Background(), QueryOptions{Limit: 3, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, "https://api.example.com/7", page[0].RequestURL)

		rest, err := store.List(context.Background(), QueryOptions{Offset: 8})
		require.NoError(t, err)
		assert.Len(t, rest, 2)

		count, err := store.Count(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(10), count)
	})

	t.Run("empty store", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		entries, err := store.List(context.Background(), QueryOptions{})

		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func runDeleteTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("deletes an entry", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		ids := addEntries(t, store, Entry{}, Entry{})

		require.NoError(t, store.Delete(context.Background(), ids[0]))

		_, err := store.Get(context.Background(), ids[0])
		assert.ErrorIs(t, err, ErrNotFound)
		count, err := store.Count(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown ID", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		assert.ErrorIs(t, store.Delete(context.Background(), "missing"), ErrNotFound)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addEntries(t, store, Entry{}, Entry{}, Entry{})

		require.NoError(t, store.Clear(context.Background()))

		count, err := store.Count(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func runPruneTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("prunes entries older than duration", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for _, ts := range []time.Time{
			now.Add(-48 * time.Hour),
			now.Add(-47 * time.Hour),
			now.Add(-12 * time.Hour),
			now,
		} {
			addEntries(t, store, Entry{Timestamp: ts})
		}

		deleted, err := store.Prune(context.Background(), PruneOptions{OlderThan: 24 * time.Hour})

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, err := store.List(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Len(t, remaining, 2)
	})

	t.Run("prunes keeping last N entries", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for i := 0; i < 10; i++ {
			addEntries(t, store, Entry{
				Timestamp:  now.Add(time.Duration(i) * time.Second),
				RequestURL: fmt.Sprintf("https://api.example.com/%d", i),
			})
		}

		deleted, err := store.Prune(context.Background(), PruneOptions{KeepLast: 5})

		require.NoError(t, err)
		assert.Equal(t, int64(5), deleted)

		remaining, err := store.List(context.Background(), QueryOptions{})
		require.NoError(t, err)
		require.Len(t, remaining, 5)
		assert.Equal(t, "https://api.example.com/9", remaining[0].RequestURL)
		assert.Equal(t, "https://api.example.com/5", remaining[4].RequestURL)
	})

	t.Run("nothing to prune", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addEntries(t, store, Entry{})

		deleted, err := store.Prune(context.Background(), PruneOptions{KeepLast: 5})

		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func runClosedTests(t *testing.T, newStore func() (Store, func())) {
	store, cleanup := newStore()
	defer cleanup()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close is idempotent")

	ctx := context.Background()
	_, err := store.Add(ctx, Entry{})
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.List(ctx, QueryOptions{})
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.Count(ctx, QueryOptions{})
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Delete(ctx, "x"), ErrStoreClosed)
	_, err = store.Prune(ctx, PruneOptions{KeepLast: 1})
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Clear(ctx), ErrStoreClosed)
}
