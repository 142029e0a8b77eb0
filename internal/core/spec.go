package core

import (
	"bytes"
	"net/url"
	"strings"
)

// RequestSpec is the structured description of a request before dispatch.
type RequestSpec struct {
	Method      Method
	URL         string
	Headers     *Headers
	Body        []byte
	ContentType string
	Auth        *Auth
}

// NewRequestSpec creates a spec with empty headers and body.
func NewRequestSpec(method Method, rawURL string) *RequestSpec {
	return &RequestSpec{
		Method:  method,
		URL:     rawURL,
		Headers: NewHeaders(),
	}
}

// SetHeader replaces a header value.
func (s *RequestSpec) SetHeader(key, value string) {
	s.headers().Set(key, value)
}

// AddHeader appends a header value.
func (s *RequestSpec) AddHeader(key, value string) {
	s.headers().Add(key, value)
}

func (s *RequestSpec) headers() *Headers {
	if s.Headers == nil {
		s.Headers = NewHeaders()
	}
	return s.Headers
}

// HasBody returns true if the spec carries a payload.
func (s *RequestSpec) HasBody() bool {
	return len(s.Body) > 0
}

// EffectiveContentType returns the Content-Type header if present, otherwise
// the declared content type.
func (s *RequestSpec) EffectiveContentType() string {
	if ct := s.Headers.Get("Content-Type"); ct != "" {
		return ct
	}
	return s.ContentType
}

// Validate checks the method and URL invariants.
func (s *RequestSpec) Validate() error {
	if !s.Method.Valid() {
		return invalidf("unsupported method %q", string(s.Method))
	}
	if strings.TrimSpace(s.URL) == "" {
		return invalidf("URL is empty")
	}
	if _, err := url.Parse(strings.TrimSpace(s.URL)); err != nil {
		return invalidf("URL %q is not parseable: %v", s.URL, err)
	}
	return nil
}

// ResolveURL returns the absolute http(s) URL the spec targets.
func (s *RequestSpec) ResolveURL() (*url.URL, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	u, _ := url.Parse(strings.TrimSpace(s.URL))
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalidf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return nil, invalidf("URL %q has no host", s.URL)
	}
	return u, nil
}

// Clone creates a deep copy of the spec.
func (s *RequestSpec) Clone() *RequestSpec {
	return &RequestSpec{
		Method:      s.Method,
		URL:         s.URL,
		Headers:     s.Headers.Clone(),
		Body:        bytes.Clone(s.Body),
		ContentType: s.ContentType,
		Auth:        s.Auth.Clone(),
	}
}
