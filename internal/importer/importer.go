package importer

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrParseError = errors.New("parse error")
)

// CurlParseError reports the first token the parser could not accept.
// Position is the byte offset of the token in the original input.
type CurlParseError struct {
	Token    string
	Position int
	Reason   string
}

func (e *CurlParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("curl: %s at position %d", e.Reason, e.Position)
	}
	return fmt.Sprintf("curl: %s at position %d (%q)", e.Reason, e.Position, e.Token)
}

// Unwrap lets callers match any parse failure with errors.Is(err, ErrParseError).
func (e *CurlParseError) Unwrap() error {
	return ErrParseError
}

func parseErrorAt(tok token, reason string) *CurlParseError {
	return &CurlParseError{Token: tok.value, Position: tok.pos, Reason: reason}
}

// IsCurlCommand reports whether text starts with a curl invocation.
func IsCurlCommand(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && fields[0] == "curl"
}
