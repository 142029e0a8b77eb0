package history

import (
	"fmt"
	"time"

	"github.com/tednaaa/resto/internal/core"
)

// Header is a stored name/value pair.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Entry represents a single dispatched request and how it ended.
// Credentials are never stored.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// Request data
	RequestMethod      string   `json:"request_method"`
	RequestURL         string   `json:"request_url"`
	RequestHeaders     []Header `json:"request_headers,omitempty"`
	RequestBody        string   `json:"request_body,omitempty"`
	RequestContentType string   `json:"request_content_type,omitempty"`

	// Outcome
	Result string `json:"result"`
	Reason string `json:"reason,omitempty"`

	// Response data
	ResponseStatus     int      `json:"response_status"`
	ResponseStatusText string   `json:"response_status_text,omitempty"`
	ResponseHeaders    []Header `json:"response_headers,omitempty"`
	ResponseBody       string   `json:"response_body,omitempty"`
	ResponseTime       int64    `json:"response_time"` // milliseconds
	ResponseSize       int64    `json:"response_size"` // bytes
}

// QueryOptions specifies filters and pagination for history queries.
type QueryOptions struct {
	Method     string // Filter by HTTP method
	URLPattern string // SQL LIKE pattern on the URL
	Search     string // Substring match on URL or bodies
	Result     string // Filter by outcome ("success", "timeout", ...)

	Limit  int // Maximum number of results (0 = no limit)
	Offset int // Number of results to skip
}

// PruneOptions specifies criteria for pruning old history entries.
type PruneOptions struct {
	OlderThan time.Duration // Delete entries older than this duration
	KeepLast  int           // Keep only the last N entries
}

// NewEntry records a spec and the record it produced.
func NewEntry(spec *core.RequestSpec, record *core.ResponseRecord) Entry {
	entry := Entry{
		Timestamp:          time.Now(),
		RequestMethod:      spec.Method.String(),
		RequestURL:         spec.URL,
		RequestHeaders:     fromCore(spec.Headers),
		RequestBody:        string(spec.Body),
		RequestContentType: spec.ContentType,
	}
	if record == nil {
		return entry
	}

	entry.Timestamp = record.ReceivedAt()
	entry.Result = record.Result().String()
	entry.Reason = record.Reason()
	entry.ResponseStatus = record.StatusCode()
	entry.ResponseStatusText = record.StatusText()
	entry.ResponseHeaders = fromCore(record.Headers())
	entry.ResponseBody = record.BodyString()
	entry.ResponseTime = record.Elapsed().Milliseconds()
	entry.ResponseSize = int64(record.Size())
	return entry
}

// Spec rebuilds the request the entry was made from.
func (e Entry) Spec() *core.RequestSpec {
	method, err := core.ParseMethod(e.RequestMethod)
	if err != nil {
		method = core.MethodGet
	}
	spec := core.NewRequestSpec(method, e.RequestURL)
	for _, h := range e.RequestHeaders {
		spec.AddHeader(h.Name, h.Value)
	}
	if e.RequestBody != "" {
		spec.Body = []byte(e.RequestBody)
	}
	spec.ContentType = e.RequestContentType
	return spec
}

// Summary is a one-line description for listings.
func (e Entry) Summary() string {
	if e.Result == core.ResultSuccess.String() {
		return fmt.Sprintf("%s %s -> %d %s", e.RequestMethod, e.RequestURL, e.ResponseStatus, e.ResponseStatusText)
	}
	outcome := e.Result
	if e.Reason != "" {
		outcome += ": " + e.Reason
	}
	return fmt.Sprintf("%s %s -> %s", e.RequestMethod, e.RequestURL, outcome)
}

func fromCore(h *core.Headers) []Header {
	pairs := h.Pairs()
	if len(pairs) == 0 {
		return nil
	}
	result := make([]Header, len(pairs))
	for i, p := range pairs {
		result[i] = Header{Name: p.Name, Value: p.Value}
	}
	return result
}
