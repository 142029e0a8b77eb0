package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// FormatHeaders renders headers as aligned "Name : value" lines, in order.
func FormatHeaders(h *Headers) string {
	pairs := h.Pairs()
	if len(pairs) == 0 {
		return ""
	}

	width := 0
	for _, p := range pairs {
		if n := utf8.RuneCountInString(p.Name); n > width {
			width = n
		}
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("%-*s : %s", width, p.Name, p.Value))
	}
	return strings.Join(lines, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
