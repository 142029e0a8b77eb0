package core

import (
	"fmt"
	"strings"
)

// Method is an HTTP request method from the fixed set resto can dispatch.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists the supported methods in cycling order.
var Methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodDelete,
	MethodPatch,
	MethodHead,
	MethodOptions,
}

// ParseMethod converts a case-insensitive verb into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported method %q", s)
	}
	return m, nil
}

// Valid returns true if the method is part of the supported set.
func (m Method) Valid() bool {
	for _, candidate := range Methods {
		if m == candidate {
			return true
		}
	}
	return false
}

// String returns the verb.
func (m Method) String() string {
	return string(m)
}

// Next returns the following method, wrapping around.
func (m Method) Next() Method {
	return m.offset(1)
}

// Prev returns the preceding method, wrapping around.
func (m Method) Prev() Method {
	return m.offset(len(Methods) - 1)
}

func (m Method) offset(n int) Method {
	for i, candidate := range Methods {
		if candidate == m {
			return Methods[(i+n)%len(Methods)]
		}
	}
	return MethodGet
}
