package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/history"
)

// SendOptions holds options for the send command.
type SendOptions struct {
	Headers []string
	Body    string
	JSON    bool
	Timeout time.Duration
}

// NewSendCommand creates the send command.
func NewSendCommand(global *GlobalOptions) *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Send an HTTP request",
		Long:  "Send an HTTP request to the specified URL with the given method and print the response.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, global, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request headers (format: Key: Value)")
	cmd.Flags().StringVarP(&opts.Body, "data", "d", "", "Request body")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output response as JSON")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Request timeout (default from config)")

	return cmd
}

func runSend(cmd *cobra.Command, global *GlobalOptions, method, url string, opts *SendOptions) error {
	spec, err := buildRequest(url, &RequestOptions{
		Method:  method,
		Headers: opts.Headers,
		Body:    opts.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if spec.ContentType == "" && spec.HasBody() {
		spec.ContentType = "text/plain"
	}

	e, err := newEnv(global)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	record, err := e.pipeline.Do(ctx, spec, opts.Timeout)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	recordHistory(ctx, e, spec, record)

	if opts.JSON {
		return outputJSON(cmd, record)
	}
	if err := outputHuman(cmd, record); err != nil {
		return err
	}
	if !record.Succeeded() {
		return fmt.Errorf("request failed: %w", record.Err())
	}
	return nil
}

func recordHistory(ctx context.Context, e *env, spec *core.RequestSpec, record *core.ResponseRecord) {
	if e.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := e.history.Add(ctx, history.NewEntry(spec, record)); err != nil {
		e.logger.Warn("save history", "err", err)
		return
	}
	if e.cfg.History.Limit > 0 {
		if _, err := e.history.Prune(ctx, history.PruneOptions{KeepLast: e.cfg.History.Limit}); err != nil {
			e.logger.Warn("prune history", "err", err)
		}
	}
}

func outputJSON(cmd *cobra.Command, record *core.ResponseRecord) error {
	result := map[string]any{
		"result":      record.Result().String(),
		"status":      record.StatusCode(),
		"status_text": record.StatusText(),
		"headers":     record.Headers().ToMap(),
		"body":        record.BodyString(),
		"timing_ms":   record.Elapsed().Milliseconds(),
	}
	if !record.Succeeded() {
		result["error"] = record.Err().Error()
		result["reason"] = record.Reason()
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputHuman(cmd *cobra.Command, record *core.ResponseRecord) error {
	out := cmd.OutOrStdout()

	if !record.Succeeded() {
		fmt.Fprintf(out, "Error: %s\n", record.Err())
		if reason := record.Reason(); reason != "" {
			fmt.Fprintf(out, "Reason: %s\n", reason)
		}
		fmt.Fprintf(out, "Time: %dms\n", record.Elapsed().Milliseconds())
		return nil
	}

	// Status line
	fmt.Fprintf(out, "HTTP %s\n", record.Status())
	fmt.Fprintf(out, "Time: %dms  Size: %s\n", record.Elapsed().Milliseconds(), record.FormattedSize())
	fmt.Fprintln(out)

	if headers := core.FormatHeaders(record.Headers()); headers != "" {
		fmt.Fprintln(out, "Headers:")
		for _, line := range strings.Split(headers, "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
		fmt.Fprintln(out)
	}

	if record.Size() > 0 {
		fmt.Fprintln(out, "Body:")
		fmt.Fprintln(out, record.PrettyBody())
	}

	return nil
}
