package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tednaaa/resto/internal/core"
)

// ToSpec assembles a request from the three panes. Header lines are
// "Name: Value"; blank lines and lines starting with '#' are skipped. An
// imported content type applies only while the body is the imported one.
func (s *Session) ToSpec() (*core.RequestSpec, error) {
	spec := core.NewRequestSpec(s.method, strings.TrimSpace(s.editors[PaneURL].Text()))

	headers, err := ParseHeaderLines(s.editors[PaneHeaders].Text())
	if err != nil {
		return nil, err
	}
	spec.Headers = headers

	body := s.editors[PaneBody].Text()
	if strings.TrimSpace(body) != "" {
		spec.Body = []byte(body)
		if body == s.typedBody {
			spec.ContentType = s.contentType
		}
		if spec.ContentType == "" && json.Valid(spec.Body) {
			spec.ContentType = "application/json"
		}
	}
	spec.Auth = s.auth.Clone()

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// FromSpec overwrites the panes, method and auth with spec. Each pane change
// is one undo step in that pane.
func (s *Session) FromSpec(spec *core.RequestSpec) {
	if spec == nil {
		return
	}
	s.editors[PaneURL].SetText(spec.URL)
	s.editors[PaneHeaders].SetText(FormatHeaderLines(spec.Headers))
	s.editors[PaneBody].SetText(string(spec.Body))
	if spec.Method.Valid() {
		s.method = spec.Method
	} else {
		s.method = core.MethodGet
	}
	s.SetAuth(spec.Auth)
	s.contentType = spec.ContentType
	s.typedBody = string(spec.Body)
}

// ParseHeaderLines reads "Name: Value" lines.
func ParseHeaderLines(text string) (*core.Headers, error) {
	headers := core.NewHeaders()
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &core.InvalidRequestSpecError{
				Reason: fmt.Sprintf("header line %d: expected \"Name: Value\", got %q", i+1, line),
			}
		}
		headers.Add(name, strings.TrimSpace(value))
	}
	return headers, nil
}

// FormatHeaderLines writes headers one "Name: Value" per line.
func FormatHeaderLines(h *core.Headers) string {
	pairs := h.Pairs()
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, p.Name+": "+p.Value)
	}
	return strings.Join(lines, "\n")
}
