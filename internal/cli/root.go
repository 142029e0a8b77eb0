package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tednaaa/resto/internal/app"
	"github.com/tednaaa/resto/internal/core"
	"github.com/tednaaa/resto/internal/tui"
	"github.com/tednaaa/resto/internal/tui/views"
)

// RequestOptions describe the request the TUI starts with.
type RequestOptions struct {
	Method  string
	Headers []string
	Body    string
	Timeout time.Duration
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	global := &GlobalOptions{}
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "resto [URL]",
		Short: "resto - a vim-modal TUI HTTP client",
		Long: `resto edits the URL, headers and body of an HTTP request in vim-style panes,
sends it, and shows the response.

Examples:
  resto
  resto https://httpbin.org/get
  resto -X POST https://httpbin.org/post -H "Content-Type: application/json" -d '{"name": "test"}'`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			spec, err := buildRequest(url, opts)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), global, spec, opts.Timeout)
		},
	}

	cmd.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "Config file (default $XDG_CONFIG_HOME/resto/config.yaml)")
	cmd.PersistentFlags().BoolVar(&global.NoHistory, "no-history", false, "Do not record requests")
	cmd.PersistentFlags().BoolVarP(&global.Insecure, "insecure", "k", false, "Skip TLS certificate verification")

	cmd.Flags().StringVarP(&opts.Method, "request", "X", "", "Request method")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request header (format: Key: Value)")
	cmd.Flags().StringVarP(&opts.Body, "data", "d", "", "Request body")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Request timeout (default from config)")

	cmd.AddCommand(NewSendCommand(global))
	cmd.AddCommand(NewCurlCommand(global))
	cmd.AddCommand(NewHistoryCommand(global))

	return cmd
}

// buildRequest turns the command line into the starting request. It returns
// nil when nothing was given.
func buildRequest(url string, opts *RequestOptions) (*core.RequestSpec, error) {
	if url == "" && opts.Method == "" && len(opts.Headers) == 0 && opts.Body == "" {
		return nil, nil
	}

	method := core.MethodGet
	if opts.Method != "" {
		m, err := core.ParseMethod(opts.Method)
		if err != nil {
			return nil, err
		}
		method = m
	} else if opts.Body != "" {
		method = core.MethodPost
	}

	spec := core.NewRequestSpec(method, url)
	headers, err := app.ParseHeaderLines(strings.Join(opts.Headers, "\n"))
	if err != nil {
		return nil, err
	}
	spec.Headers = headers
	if opts.Body != "" {
		spec.Body = []byte(opts.Body)
		spec.ContentType = headers.Get("Content-Type")
	}
	return spec, nil
}

// tuiModel wraps the MainView for bubbletea
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// newSession builds the interactive session over e.
func newSession(ctx context.Context, e *env, spec *core.RequestSpec, timeout time.Duration) *app.Session {
	if timeout <= 0 {
		timeout = e.cfg.Request.Timeout
	}
	return app.NewSession(e.pipeline,
		app.WithContext(ctx),
		app.WithHistory(e.history, e.cfg.History.Limit),
		app.WithClipboard(tui.NewSystemClipboard()),
		app.WithCookieJar(e.jar),
		app.WithTimeout(timeout),
		app.WithLogger(e.logger),
		app.WithRequest(spec),
	)
}

// runTUI starts the TUI application
func runTUI(ctx context.Context, global *GlobalOptions, spec *core.RequestSpec, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := newEnv(global)
	if err != nil {
		return err
	}
	defer e.Close()

	session := newSession(ctx, e, spec, timeout)
	defer session.Close()

	model := tuiModel{
		view: views.NewMainView(session),
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}
