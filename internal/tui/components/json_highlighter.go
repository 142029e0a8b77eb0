package components

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// JSONHighlighter colors JSON tokens.
type JSONHighlighter struct {
	key         lipgloss.Style
	str         lipgloss.Style
	number      lipgloss.Style
	literal     lipgloss.Style
	null        lipgloss.Style
	punctuation lipgloss.Style
}

// NewJSONHighlighter creates a highlighter with the default palette.
func NewJSONHighlighter() *JSONHighlighter {
	return &JSONHighlighter{
		key:         lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		str:         lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		number:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		literal:     lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		null:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		punctuation: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

// FormatLines indents content when it is valid JSON and highlights it.
func (h *JSONHighlighter) FormatLines(content string) []string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(content), "", "  "); err == nil {
		content = out.String()
	}
	return strings.Split(h.Highlight(content), "\n")
}

// Highlight colors every token, line by line. Malformed input is colored as
// far as it scans and otherwise passed through.
func (h *JSONHighlighter) Highlight(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = h.highlightLine([]rune(line))
	}
	return strings.Join(lines, "\n")
}

func (h *JSONHighlighter) highlightLine(line []rune) string {
	var sb strings.Builder
	for i := 0; i < len(line); {
		r := line[i]
		switch {
		case r == '"':
			end := scanString(line, i)
			style := h.str
			if isKey(line, end) {
				style = h.key
			}
			sb.WriteString(style.Render(string(line[i:end])))
			i = end
		case r == '-' || (r >= '0' && r <= '9'):
			end := scanWhile(line, i, isNumberRune)
			sb.WriteString(h.number.Render(string(line[i:end])))
			i = end
		case r >= 'a' && r <= 'z':
			end := scanWhile(line, i, func(r rune) bool { return r >= 'a' && r <= 'z' })
			word := string(line[i:end])
			switch word {
			case "true", "false":
				sb.WriteString(h.literal.Render(word))
			case "null":
				sb.WriteString(h.null.Render(word))
			default:
				sb.WriteString(word)
			}
			i = end
		case strings.ContainsRune("{}[]:,", r):
			sb.WriteString(h.punctuation.Render(string(r)))
			i++
		default:
			sb.WriteRune(r)
			i++
		}
	}
	return sb.String()
}

// scanString returns the index after the string starting at line[start].
func scanString(line []rune, start int) int {
	for i := start + 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(line)
}

func scanWhile(line []rune, start int, ok func(rune) bool) int {
	i := start + 1
	for i < len(line) && ok(line[i]) {
		i++
	}
	return i
}

func isNumberRune(r rune) bool {
	return (r >= '0' && r <= '9') || strings.ContainsRune(".eE+-", r)
}

// isKey reports whether the next non-blank rune after pos is a colon.
func isKey(line []rune, pos int) bool {
	for ; pos < len(line); pos++ {
		switch line[pos] {
		case ' ', '\t':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}
