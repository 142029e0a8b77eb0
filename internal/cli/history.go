package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tednaaa/resto/internal/history"
)

// ErrHistoryDisabled is returned when no history store is configured.
var ErrHistoryDisabled = errors.New("history is disabled")

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Method string
	Search string
	JSON   bool
	Clear  bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(global *GlobalOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent requests",
		Long: `List the requests recorded in the history database, most recent first.
The number in the first column loads the request in the TUI with :history N.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, global, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVarP(&opts.Method, "method", "X", "", "Only show this method")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Only show entries whose URL or body contains this text")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output entries as JSON")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete all entries")

	return cmd
}

func runHistory(cmd *cobra.Command, global *GlobalOptions, opts *HistoryOptions) error {
	e, err := newEnv(global)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.history == nil {
		return ErrHistoryDisabled
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Clear {
		if err := e.history.Clear(ctx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
		return nil
	}

	entries, err := e.history.List(ctx, history.QueryOptions{
		Method: strings.ToUpper(opts.Method),
		Search: opts.Search,
		Limit:  opts.Limit,
	})
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if opts.JSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	return outputHistory(cmd, entries)
}

func outputHistory(cmd *cobra.Command, entries []history.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no history")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tWHEN\tMETHOD\tURL\tRESULT\tTIME")
	for i, entry := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%dms\n",
			i+1,
			humanize.Time(entry.Timestamp),
			entry.RequestMethod,
			entry.RequestURL,
			outcome(entry),
			entry.ResponseTime,
		)
	}
	return w.Flush()
}

func outcome(entry history.Entry) string {
	if entry.ResponseStatus > 0 {
		return fmt.Sprintf("%d %s", entry.ResponseStatus, entry.ResponseStatusText)
	}
	if entry.Reason != "" {
		return entry.Result + ": " + entry.Reason
	}
	return entry.Result
}
