package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tednaaa/resto/internal/exporter"
	"github.com/tednaaa/resto/internal/importer"
)

// NewCurlCommand creates a command that parses a curl command and opens TUI.
func NewCurlCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curl [--print] [curl command arguments...]",
		Short: "Import a curl command and open in TUI",
		Long: `Parse a curl command and open the TUI with the request ready to send.
With --print the normalized curl command is written to stdout instead.

Examples:
  resto curl https://httpbin.org/get
  resto curl -X POST https://httpbin.org/post -H "Content-Type: application/json" -d '{"name": "test"}'
  resto curl --print -u admin:secret https://api.example.com/protected`,
		DisableFlagParsing: true, // Pass all args to curl parser
		RunE: func(cmd *cobra.Command, args []string) error {
			args, printOnly := extractFlag(args, "--print")
			if len(args) == 0 {
				return fmt.Errorf("no curl arguments provided")
			}

			result, err := importer.ParseCurl(curlCommandLine(args))
			if err != nil {
				return fmt.Errorf("failed to parse curl command: %w", err)
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}

			if printOnly {
				out, err := exporter.NewCurlExporter().ExportRequest(result.Spec)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			return runTUI(cmd.Context(), global, result.Spec, result.Timeout)
		},
	}
	return cmd
}

// curlCommandLine rebuilds a command line the parser tokenizes back into
// args, quoting every argument.
func curlCommandLine(args []string) string {
	if len(args) > 0 && args[0] == "curl" {
		args = args[1:]
	}
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "curl")
	for _, a := range args {
		quoted = append(quoted, "'"+strings.ReplaceAll(a, "'", `'\''`)+"'")
	}
	return strings.Join(quoted, " ")
}

// extractFlag removes every occurrence of a boolean flag from args.
func extractFlag(args []string, flag string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == flag {
			found = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, found
}
