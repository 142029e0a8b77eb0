package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/tednaaa/resto/internal/core"
)

// Handle tracks one in-flight request. It completes exactly once.
type Handle struct {
	id     string
	spec   *core.RequestSpec
	cancel context.CancelFunc
	start  time.Time

	mu        sync.Mutex
	done      chan struct{}
	record    *core.ResponseRecord
	cancelled bool
}

func newHandle(id string, spec *core.RequestSpec, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:     id,
		spec:   spec,
		cancel: cancel,
		start:  time.Now(),
		done:   make(chan struct{}),
	}
}

// ID returns the request id.
func (h *Handle) ID() string {
	return h.id
}

// Spec returns a copy of the dispatched spec.
func (h *Handle) Spec() *core.RequestSpec {
	return h.spec.Clone()
}

// Started returns the dispatch time.
func (h *Handle) Started() time.Time {
	return h.start
}

// Done is closed once the record is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the request completes.
func (h *Handle) Wait() *core.ResponseRecord {
	<-h.done
	return h.record
}

// Result returns the record without blocking.
func (h *Handle) Result() (*core.ResponseRecord, bool) {
	select {
	case <-h.done:
		return h.record, true
	default:
		return nil, false
	}
}

// Cancel aborts the request. It returns false when the request had already
// completed or been cancelled; when it returns true the record is Cancelled.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.record != nil || h.cancelled {
		return false
	}
	h.cancelled = true
	h.cancel()
	return true
}

func (h *Handle) finish(record *core.ResponseRecord) *core.ResponseRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancelled && record.Result() != core.ResultCancelled {
		record = core.NewFailureRecord(h.spec, core.ResultCancelled, "request cancelled", record.Elapsed())
	}
	h.record = record
	close(h.done)
	return record
}
