package exporter

import (
	"errors"
	"strings"

	"github.com/tednaaa/resto/internal/core"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
)

// CurlExporter renders request specs as curl commands.
type CurlExporter struct {
	Pretty      bool // one option per line, joined with continuations
	IncludeAuth bool
}

// NewCurlExporter creates a new curl exporter.
func NewCurlExporter() *CurlExporter {
	return &CurlExporter{
		Pretty:      true,
		IncludeAuth: true,
	}
}

type curlArg struct {
	flag     string
	value    string
	hasValue bool
}

func flagArg(flag string) curlArg {
	return curlArg{flag: flag}
}

func valueArg(flag, value string) curlArg {
	return curlArg{flag: flag, value: value, hasValue: true}
}

// ExportRequest renders a single spec. The output parses back into an
// equivalent spec.
func (c *CurlExporter) ExportRequest(spec *core.RequestSpec) (string, error) {
	if spec == nil || strings.TrimSpace(spec.URL) == "" {
		return "", ErrInvalidRequest
	}

	var args []curlArg

	switch {
	case spec.Method == core.MethodHead && !spec.HasBody():
		args = append(args, flagArg("-I"))
	case spec.Method == core.MethodGet && !spec.HasBody():
	case spec.Method == core.MethodPost && spec.HasBody():
	default:
		args = append(args, valueArg("-X", spec.Method.String()))
	}

	for _, h := range spec.Headers.Pairs() {
		args = append(args, valueArg("-H", h.Name+": "+h.Value))
	}
	if spec.HasBody() && !spec.Headers.Has("Content-Type") &&
		spec.ContentType != "" && spec.ContentType != "application/x-www-form-urlencoded" {
		args = append(args, valueArg("-H", "Content-Type: "+spec.ContentType))
	}

	if c.IncludeAuth && !spec.Auth.IsZero() {
		switch spec.Auth.Type {
		case core.AuthTypeBasic:
			args = append(args, valueArg("-u", spec.Auth.Username+":"+spec.Auth.Password))
		case core.AuthTypeBearer:
			args = append(args, valueArg("--oauth2-bearer", spec.Auth.Token))
		}
	}

	if spec.HasBody() {
		args = append(args, valueArg("--data-raw", string(spec.Body)))
	}

	if c.Pretty {
		return formatPrettyCurl(args, spec.URL), nil
	}
	return formatInlineCurl(args, spec.URL), nil
}

func (a curlArg) String() string {
	if !a.hasValue {
		return a.flag
	}
	return a.flag + " " + shellQuote(a.value)
}

func formatInlineCurl(args []curlArg, rawURL string) string {
	parts := []string{"curl"}
	for _, a := range args {
		parts = append(parts, a.String())
	}
	parts = append(parts, shellQuote(rawURL))
	return strings.Join(parts, " ")
}

func formatPrettyCurl(args []curlArg, rawURL string) string {
	var result strings.Builder
	result.WriteString("curl ")
	result.WriteString(shellQuote(rawURL))
	for _, a := range args {
		result.WriteString(" \\\n  ")
		result.WriteString(a.String())
	}
	return result.String()
}

// shellQuote wraps s in single quotes when the shell would otherwise
// interpret any of its characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
