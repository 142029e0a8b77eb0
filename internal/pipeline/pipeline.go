// Package pipeline dispatches request specs asynchronously and turns every
// outcome, including timeouts and cancellation, into exactly one
// core.ResponseRecord.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tednaaa/resto/internal/core"
)

// DefaultTimeout applies when Execute is called without a timeout.
const DefaultTimeout = 30 * time.Second

// Sender performs one request. It should return once ctx is done; a sender
// that does not is abandoned and its late result dropped.
type Sender interface {
	Send(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error) {
	return f(ctx, spec)
}

// Pipeline validates and dispatches requests.
type Pipeline struct {
	sender         Sender
	defaultTimeout time.Duration
	logger         *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDefaultTimeout sets the timeout used when Execute gets zero.
func WithDefaultTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.defaultTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline around sender.
func New(sender Sender, opts ...Option) *Pipeline {
	p := &Pipeline{
		sender:         sender,
		defaultTimeout: DefaultTimeout,
		logger:         log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultTimeout returns the timeout used when none is given.
func (p *Pipeline) DefaultTimeout() time.Duration {
	return p.defaultTimeout
}

// Execute validates spec and starts it in the background. Validation errors
// are returned synchronously as *core.InvalidRequestSpecError and nothing is
// dispatched. The spec is copied, so later edits do not affect the request.
func (p *Pipeline) Execute(ctx context.Context, spec *core.RequestSpec, timeout time.Duration) (*Handle, error) {
	if spec == nil {
		return nil, &core.InvalidRequestSpecError{Reason: "no request"}
	}
	if _, err := spec.ResolveURL(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}

	spec = spec.Clone()
	runCtx, cancel := context.WithCancel(ctx)
	h := newHandle(uuid.NewString(), spec, cancel)

	p.logger.Info("request dispatched",
		"id", h.id,
		"method", spec.Method,
		"url", spec.URL,
		"timeout", timeout,
	)
	go p.run(runCtx, h, timeout)
	return h, nil
}

// Do runs spec and blocks until its record is available. Cancelling ctx
// yields a Cancelled record.
func (p *Pipeline) Do(ctx context.Context, spec *core.RequestSpec, timeout time.Duration) (*core.ResponseRecord, error) {
	h, err := p.Execute(ctx, spec, timeout)
	if err != nil {
		return nil, err
	}
	return h.Wait(), nil
}

type outcome struct {
	record *core.ResponseRecord
	err    error
}

func (p *Pipeline) run(ctx context.Context, h *Handle, timeout time.Duration) {
	defer h.cancel()

	start := time.Now()
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan outcome, 1)
	go func() {
		record, err := p.send(sendCtx, h.spec)
		results <- outcome{record: record, err: err}
	}()

	var out outcome
	select {
	case out = <-results:
	case <-sendCtx.Done():
		out.err = sendCtx.Err()
	}
	elapsed := time.Since(start)

	record := h.finish(toRecord(h.spec, out.record, out.err, timeout, elapsed))

	p.logger.Info("request finished",
		"id", h.id,
		"result", record.Result(),
		"status", record.StatusCode(),
		"elapsed", record.Elapsed(),
	)
}

// send guards against senders that panic, so a handle always completes.
func (p *Pipeline) send(ctx context.Context, spec *core.RequestSpec) (record *core.ResponseRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("sender panicked", "panic", r)
			err = &core.NetworkError{Reason: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return p.sender.Send(ctx, spec)
}

func toRecord(spec *core.RequestSpec, record *core.ResponseRecord, err error, timeout, elapsed time.Duration) *core.ResponseRecord {
	if err == nil && record != nil {
		return record
	}
	if err == nil {
		err = errors.New("no response")
	}

	var netErr *core.NetworkError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return core.NewFailureRecord(spec, core.ResultTimeout, fmt.Sprintf("no response within %s", timeout), elapsed)
	case errors.Is(err, context.Canceled):
		return core.NewFailureRecord(spec, core.ResultCancelled, "request cancelled", elapsed)
	case errors.As(err, &netErr) && netErr.Reason != "":
		return core.NewFailureRecord(spec, core.ResultNetworkError, netErr.Reason, elapsed)
	default:
		return core.NewFailureRecord(spec, core.ResultNetworkError, err.Error(), elapsed)
	}
}
