package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tednaaa/resto/internal/core"
)

func TestNewEntry(t *testing.T) {
	spec := core.NewRequestSpec(core.MethodPost, "https://api.example.com/users")
	spec.AddHeader("Content-Type", "application/json")
	spec.AddHeader("X-Trace", "1")
	spec.Body = []byte(`{"name":"John"}`)
	spec.Auth = core.NewBearerAuth("secret")

	t.Run("success", func(t *testing.T) {
		headers := core.NewHeaders()
		headers.Add("Location", "/users/1")
		record := core.NewSuccessRecord(spec, 201, "Created", headers, []byte(`{"id":1}`), 1500*time.Millisecond)

		entry := NewEntry(spec, record)

		assert.Equal(t, "POST", entry.RequestMethod)
		assert.Equal(t, "https://api.example.com/users", entry.RequestURL)
		assert.Equal(t, []Header{{"Content-Type", "application/json"}, {"X-Trace", "1"}}, entry.RequestHeaders)
		assert.Equal(t, `{"name":"John"}`, entry.RequestBody)
		assert.Equal(t, "success", entry.Result)
		assert.Equal(t, 201, entry.ResponseStatus)
		assert.Equal(t, []Header{{"Location", "/users/1"}}, entry.ResponseHeaders)
		assert.Equal(t, int64(1500), entry.ResponseTime)
		assert.Equal(t, int64(8), entry.ResponseSize)
		assert.Equal(t, record.ReceivedAt(), entry.Timestamp)
		assert.Equal(t, "POST https://api.example.com/users -> 201 Created", entry.Summary())
		assert.NotContains(t, entry.RequestHeaders, Header{"Authorization", "Bearer secret"})
	})

	t.Run("failure", func(t *testing.T) {
		record := core.NewFailureRecord(spec, core.ResultNetworkError, "connection refused", time.Millisecond)

		entry := NewEntry(spec, record)

		assert.Equal(t, "network error", entry.Result)
		assert.Equal(t, "connection refused", entry.Reason)
		assert.Zero(t, entry.ResponseStatus)
		assert.Equal(t, "POST https://api.example.com/users -> network error: connection refused", entry.Summary())
	})

	t.Run("without record", func(t *testing.T) {
		entry := NewEntry(spec, nil)

		assert.Empty(t, entry.Result)
		assert.False(t, entry.Timestamp.IsZero())
	})
}

func TestEntry_Spec(t *testing.T) {
	t.Run("rebuilds the request", func(t *testing.T) {
		entry := Entry{
			RequestMethod:      "PATCH",
			RequestURL:         "https://example.com/a",
			RequestHeaders:     []Header{{"A", "1"}, {"a", "2"}},
			RequestBody:        "x=1",
			RequestContentType: "application/x-www-form-urlencoded",
		}

		spec := entry.Spec()

		assert.Equal(t, core.MethodPatch, spec.Method)
		assert.Equal(t, "https://example.com/a", spec.URL)
		assert.Equal(t, []string{"1", "2"}, spec.Headers.GetAll("A"))
		assert.Equal(t, []byte("x=1"), spec.Body)
		assert.Equal(t, "application/x-www-form-urlencoded", spec.ContentType)
		assert.Nil(t, spec.Auth)
	})

	t.Run("unknown method falls back to GET", func(t *testing.T) {
		spec := Entry{RequestMethod: "BREW", RequestURL: "https://example.com"}.Spec()

		assert.Equal(t, core.MethodGet, spec.Method)
		assert.Nil(t, spec.Body)
	})
}
