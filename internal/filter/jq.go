// Package filter runs jq expressions over response bodies.
package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Common errors
var (
	ErrEmptyExpression = errors.New("empty jq expression")
	ErrNotJSON         = errors.New("response body is not JSON")
)

// Apply runs expr over body and renders every result as indented JSON, one
// after another like the jq command line tool.
func Apply(ctx context.Context, expr string, body []byte) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", ErrEmptyExpression
	}

	query, err := gojq.Parse(expr)
	if err != nil {
		return "", fmt.Errorf("jq parse error: %w", err)
	}

	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	var out []string
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return "", fmt.Errorf("jq filter error: %w", err)
		}
		rendered, err := render(v)
		if err != nil {
			return "", err
		}
		out = append(out, rendered)
	}

	return strings.Join(out, "\n"), nil
}

func render(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("jq result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
