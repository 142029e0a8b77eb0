package core

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaders(t *testing.T) {
	t.Run("lookup is case-insensitive", func(t *testing.T) {
		h := NewHeaders()
		h.Set("Content-Type", "application/json")
		assert.Equal(t, "application/json", h.Get("content-type"))
		assert.True(t, h.Has("CONTENT-TYPE"))
	})

	t.Run("add keeps duplicates in order", func(t *testing.T) {
		h := NewHeaders()
		h.Add("Accept", "text/html")
		h.Add("X-Id", "1")
		h.Add("accept", "application/json")
		assert.Equal(t, []string{"text/html", "application/json"}, h.GetAll("Accept"))
		assert.Equal(t, 3, h.Len())
	})

	t.Run("set collapses duplicates at first position", func(t *testing.T) {
		h := NewHeaders()
		h.Add("Accept", "a")
		h.Add("X-Id", "1")
		h.Add("Accept", "b")
		h.Set("ACCEPT", "c")

		pairs := h.Pairs()
		assert.Len(t, pairs, 2)
		assert.Equal(t, Header{Name: "ACCEPT", Value: "c"}, pairs[0])
		assert.Equal(t, "X-Id", pairs[1].Name)
	})

	t.Run("del removes every value", func(t *testing.T) {
		h := NewHeaders()
		h.Add("A", "1")
		h.Add("a", "2")
		h.Add("B", "3")
		h.Del("A")
		assert.False(t, h.Has("a"))
		assert.Equal(t, 1, h.Len())
	})

	t.Run("nil headers are empty", func(t *testing.T) {
		var h *Headers
		assert.Equal(t, "", h.Get("X"))
		assert.False(t, h.Has("X"))
		assert.Empty(t, h.GetAll("X"))
		assert.Equal(t, 0, h.Len())
		assert.Equal(t, 0, h.Clone().Len())
	})

	t.Run("clone is independent", func(t *testing.T) {
		h := NewHeaders()
		h.Set("A", "1")
		clone := h.Clone()
		clone.Set("A", "2")
		assert.Equal(t, "1", h.Get("A"))
	})

	t.Run("to map joins duplicates", func(t *testing.T) {
		h := NewHeaders()
		h.Add("Accept", "a")
		h.Add("Accept", "b")
		assert.Equal(t, map[string]string{"Accept": "a, b"}, h.ToMap())
	})
}

func TestHeadersFromHTTP(t *testing.T) {
	src := http.Header{}
	src.Add("X-B", "2")
	src.Add("X-A", "1")
	src.Add("X-A", "3")

	h := HeadersFromHTTP(src)
	pairs := h.Pairs()
	assert.Equal(t, []Header{
		{Name: "X-A", Value: "1"},
		{Name: "X-A", Value: "3"},
		{Name: "X-B", Value: "2"},
	}, pairs)
	assert.Equal(t, src, h.ToHTTP())
}

func TestFormatHeaders(t *testing.T) {
	t.Run("aligns names", func(t *testing.T) {
		h := NewHeaders()
		h.Add("Content-Type", "application/json")
		h.Add("Date", "today")
		expected := "Content-Type : application/json\n" +
			"Date         : today"
		assert.Equal(t, expected, FormatHeaders(h))
	})

	t.Run("empty headers render nothing", func(t *testing.T) {
		assert.Equal(t, "", FormatHeaders(NewHeaders()))
		assert.Equal(t, "", FormatHeaders(nil))
	})
}
