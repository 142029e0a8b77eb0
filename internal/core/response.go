package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Result discriminates how a dispatched request ended.
type Result int

const (
	ResultSuccess Result = iota
	ResultNetworkError
	ResultTimeout
	ResultCancelled
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNetworkError:
		return "network error"
	case ResultTimeout:
		return "timeout"
	case ResultCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ResponseRecord is the immutable outcome of one dispatched request.
type ResponseRecord struct {
	id         string
	method     Method
	url        string
	result     Result
	reason     string
	statusCode int
	statusText string
	headers    *Headers
	body       []byte
	elapsed    time.Duration
	receivedAt time.Time
}

// NewSuccessRecord builds a record for a fully received response.
func NewSuccessRecord(spec *RequestSpec, statusCode int, statusText string, headers *Headers, body []byte, elapsed time.Duration) *ResponseRecord {
	r := newRecord(spec, ResultSuccess, elapsed)
	r.statusCode = statusCode
	r.statusText = statusText
	r.headers = headers.Clone()
	r.body = bytes.Clone(body)
	return r
}

// NewFailureRecord builds a record for a request that produced no response.
func NewFailureRecord(spec *RequestSpec, result Result, reason string, elapsed time.Duration) *ResponseRecord {
	r := newRecord(spec, result, elapsed)
	r.reason = reason
	return r
}

func newRecord(spec *RequestSpec, result Result, elapsed time.Duration) *ResponseRecord {
	r := &ResponseRecord{
		id:         uuid.New().String(),
		result:     result,
		headers:    NewHeaders(),
		elapsed:    elapsed,
		receivedAt: time.Now(),
	}
	if spec != nil {
		r.method = spec.Method
		r.url = spec.URL
	}
	return r
}

func (r *ResponseRecord) ID() string { return r.id }
func (r *ResponseRecord) Method() Method { return r.method }
func (r *ResponseRecord) URL() string { return r.url }
func (r *ResponseRecord) Result() Result { return r.result }
func (r *ResponseRecord) Reason() string { return r.reason }
func (r *ResponseRecord) StatusCode() int { return r.statusCode }
func (r *ResponseRecord) StatusText() string { return r.statusText }
func (r *ResponseRecord) Headers() *Headers { return r.headers.Clone() }
func (r *ResponseRecord) Body() []byte { return bytes.Clone(r.body) }
func (r *ResponseRecord) BodyString() string { return string(r.body) }
func (r *ResponseRecord) Size() int { return len(r.body) }
func (r *ResponseRecord) Elapsed() time.Duration { return r.elapsed }
func (r *ResponseRecord) ReceivedAt() time.Time { return r.receivedAt }
func (r *ResponseRecord) Succeeded() bool { return r.result == ResultSuccess }

// Err returns the typed error matching the result, or nil on success.
func (r *ResponseRecord) Err() error {
	switch r.result {
	case ResultNetworkError:
		return &NetworkError{Reason: r.reason}
	case ResultTimeout:
		return ErrTimeout
	case ResultCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// IsSuccess returns true for 2xx responses.
func (r *ResponseRecord) IsSuccess() bool {
	return r.Succeeded() && r.statusCode >= 200 && r.statusCode < 300
}

// IsClientError returns true for 4xx responses.
func (r *ResponseRecord) IsClientError() bool {
	return r.Succeeded() && r.statusCode >= 400 && r.statusCode < 500
}

// IsServerError returns true for 5xx responses.
func (r *ResponseRecord) IsServerError() bool {
	return r.Succeeded() && r.statusCode >= 500
}

// Status returns "200 OK" style text, or the result name for failures.
func (r *ResponseRecord) Status() string {
	if !r.Succeeded() {
		return r.result.String()
	}
	if r.statusText != "" {
		return r.statusText
	}
	return fmt.Sprintf("%d %s", r.statusCode, http.StatusText(r.statusCode))
}

// ContentType returns the response Content-Type header.
func (r *ResponseRecord) ContentType() string {
	return r.headers.Get("Content-Type")
}

// IsJSON returns true if the response declares a JSON body.
func (r *ResponseRecord) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

// PrettyBody returns the body indented when it is JSON, otherwise verbatim.
func (r *ResponseRecord) PrettyBody() string {
	if len(r.body) == 0 {
		return ""
	}
	if r.IsJSON() || json.Valid(r.body) {
		var out bytes.Buffer
		if err := json.Indent(&out, r.body, "", "  "); err == nil {
			return out.String()
		}
	}
	return string(r.body)
}

// FormattedSize returns the body size in human units.
func (r *ResponseRecord) FormattedSize() string {
	return humanize.IBytes(uint64(len(r.body)))
}
