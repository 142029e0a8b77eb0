package components

import (
	"strings"
	"unicode/utf8"
)

// ContentFormat is the detected format of a response body.
type ContentFormat string

const (
	FormatJSON   ContentFormat = "json"
	FormatXML    ContentFormat = "xml"
	FormatHTML   ContentFormat = "html"
	FormatText   ContentFormat = "text"
	FormatBinary ContentFormat = "binary"
)

// String returns the format name.
func (f ContentFormat) String() string {
	return string(f)
}

// Upper returns the format name for badges.
func (f ContentFormat) Upper() string {
	return strings.ToUpper(string(f))
}

// contentTypeMarkers map Content-Type fragments to formats, checked in order.
var contentTypeMarkers = []struct {
	marker string
	format ContentFormat
}{
	{"application/json", FormatJSON},
	{"text/json", FormatJSON},
	{"+json", FormatJSON},
	{"application/xml", FormatXML},
	{"text/xml", FormatXML},
	{"+xml", FormatXML},
	{"text/html", FormatHTML},
	{"image/", FormatBinary},
	{"audio/", FormatBinary},
	{"video/", FormatBinary},
	{"application/octet-stream", FormatBinary},
	{"application/pdf", FormatBinary},
	{"application/zip", FormatBinary},
}

// DetectContentFormat trusts the Content-Type header and falls back to
// sniffing the body.
func DetectContentFormat(contentType string, body string) ContentFormat {
	ct := strings.ToLower(contentType)
	for _, m := range contentTypeMarkers {
		if strings.Contains(ct, m.marker) {
			return m.format
		}
	}
	return sniff(body)
}

func sniff(body string) ContentFormat {
	if !utf8.ValidString(body) || strings.ContainsRune(body, 0) {
		return FormatBinary
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return FormatText
	}

	switch trimmed[0] {
	case '{', '[':
		return FormatJSON
	case '<':
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "<!doctype html") || strings.Contains(lower, "<html") {
			return FormatHTML
		}
		return FormatXML
	}
	return FormatText
}
