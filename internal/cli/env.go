package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/tednaaa/resto/internal/config"
	"github.com/tednaaa/resto/internal/cookies"
	"github.com/tednaaa/resto/internal/history"
	"github.com/tednaaa/resto/internal/history/sqlite"
	"github.com/tednaaa/resto/internal/logging"
	"github.com/tednaaa/resto/internal/pipeline"
	httpclient "github.com/tednaaa/resto/internal/protocol/http"
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	NoHistory  bool
	Insecure   bool
}

// env is everything a command needs to send requests.
type env struct {
	cfg      config.Config
	logger   *log.Logger
	jar      *cookies.Jar
	pipeline *pipeline.Pipeline
	history  history.Store

	closers []io.Closer
}

// newEnv loads the configuration and wires the client, pipeline and history
// store. The caller must Close it.
func newEnv(opts *GlobalOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.NoHistory {
		cfg = cfg.Apply(config.WithHistory(false))
	}
	if opts.Insecure {
		cfg = cfg.Apply(config.WithInsecureTLS(true))
	}

	e := &env{cfg: cfg, jar: cookies.NewJar()}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		// a broken log file must not keep the client from starting
		fmt.Fprintf(os.Stderr, "resto: logging disabled: %v\n", err)
		logger = logging.Discard()
	} else {
		e.closers = append(e.closers, closer)
	}
	e.logger = logger

	clientOpts := []httpclient.Option{
		httpclient.WithCookieJar(e.jar),
		httpclient.WithUserAgent(cfg.Request.UserAgent),
		httpclient.WithInsecureTLS(cfg.Request.InsecureTLS),
		httpclient.WithLogger(logger),
	}
	if !cfg.Request.FollowRedirects {
		clientOpts = append(clientOpts, httpclient.WithNoRedirects())
	}
	e.pipeline = pipeline.New(httpclient.NewClient(clientOpts...),
		pipeline.WithDefaultTimeout(cfg.Request.Timeout),
		pipeline.WithLogger(logger),
	)

	if cfg.History.Enabled {
		store, err := openHistory(cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", "path", cfg.History.Path, "err", err)
		} else {
			e.history = store
			e.closers = append(e.closers, store)
		}
	}

	logger.Debug("environment ready",
		"config", opts.ConfigPath,
		"history", e.history != nil,
		"timeout", cfg.Request.Timeout,
	)
	return e, nil
}

func openHistory(path string) (*sqlite.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return sqlite.New(path)
}

// Close releases the history store and the log file, last opened first.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
