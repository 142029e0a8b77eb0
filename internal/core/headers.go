package core

import (
	"net/http"
	"strings"
)

// Header is a single name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered, case-insensitive header list. Duplicate names are
// kept in insertion order so display matches what the user typed.
type Headers struct {
	pairs []Header
}

// NewHeaders creates an empty header list.
func NewHeaders() *Headers {
	return &Headers{}
}

// HeadersFromHTTP copies an http.Header. Names come out sorted since the
// source map carries no order.
func HeadersFromHTTP(h http.Header) *Headers {
	headers := NewHeaders()
	for _, key := range sortedKeys(map[string][]string(h)) {
		for _, value := range h[key] {
			headers.Add(key, value)
		}
	}
	return headers
}

func (h *Headers) normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Set replaces every value for key with a single value, keeping the position
// of the first occurrence and updating its casing.
func (h *Headers) Set(key, value string) {
	normalized := h.normalize(key)
	out := h.pairs[:0]
	replaced := false
	for _, p := range h.pairs {
		if h.normalize(p.Name) != normalized {
			out = append(out, p)
			continue
		}
		if !replaced {
			out = append(out, Header{Name: key, Value: value})
			replaced = true
		}
	}
	h.pairs = out
	if !replaced {
		h.pairs = append(h.pairs, Header{Name: key, Value: value})
	}
}

// Add appends a value for key.
func (h *Headers) Add(key, value string) {
	h.pairs = append(h.pairs, Header{Name: key, Value: value})
}

// Get returns the first value for key.
func (h *Headers) Get(key string) string {
	if h == nil {
		return ""
	}
	normalized := h.normalize(key)
	for _, p := range h.pairs {
		if h.normalize(p.Name) == normalized {
			return p.Value
		}
	}
	return ""
}

// Has returns true if at least one value exists for key.
func (h *Headers) Has(key string) bool {
	if h == nil {
		return false
	}
	normalized := h.normalize(key)
	for _, p := range h.pairs {
		if h.normalize(p.Name) == normalized {
			return true
		}
	}
	return false
}

// GetAll returns all values for key in order.
func (h *Headers) GetAll(key string) []string {
	if h == nil {
		return []string{}
	}
	normalized := h.normalize(key)
	result := []string{}
	for _, p := range h.pairs {
		if h.normalize(p.Name) == normalized {
			result = append(result, p.Value)
		}
	}
	return result
}

// Del removes all values for key.
func (h *Headers) Del(key string) {
	normalized := h.normalize(key)
	out := h.pairs[:0]
	for _, p := range h.pairs {
		if h.normalize(p.Name) != normalized {
			out = append(out, p)
		}
	}
	h.pairs = out
}

// Len returns the number of pairs.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.pairs)
}

// Pairs returns a copy of the pairs in order.
func (h *Headers) Pairs() []Header {
	if h == nil {
		return nil
	}
	result := make([]Header, len(h.pairs))
	copy(result, h.pairs)
	return result
}

// Clone creates a deep copy of the headers.
func (h *Headers) Clone() *Headers {
	clone := NewHeaders()
	if h != nil {
		clone.pairs = h.Pairs()
	}
	return clone
}

// ToHTTP converts the list into an http.Header.
func (h *Headers) ToHTTP() http.Header {
	result := make(http.Header)
	for _, p := range h.Pairs() {
		result.Add(p.Name, p.Value)
	}
	return result
}

// ToMap flattens the list, joining repeated values with ", ".
func (h *Headers) ToMap() map[string]string {
	result := make(map[string]string)
	for _, p := range h.Pairs() {
		if existing, ok := result[p.Name]; ok {
			result[p.Name] = existing + ", " + p.Value
			continue
		}
		result[p.Name] = p.Value
	}
	return result
}
