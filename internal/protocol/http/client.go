package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tednaaa/resto/internal/core"
)

// DefaultUserAgent is sent when the request does not set one.
const DefaultUserAgent = "resto HTTP Client/1.0"

// Client sends RequestSpecs over HTTP. It carries no timeout of its own:
// deadlines and cancellation come from the context.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *log.Logger
}

// Config holds HTTP client configuration.
type Config struct {
	FollowRedirect bool
	InsecureTLS    bool
	UserAgent      string
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		config: Config{
			FollowRedirect: true,
			UserAgent:      DefaultUserAgent,
		},
		logger: log.New(io.Discard),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.config.InsecureTLS {
		if transport, ok := client.httpClient.Transport.(*http.Transport); ok {
			if transport.TLSClientConfig == nil {
				transport.TLSClientConfig = &tls.Config{}
			}
			transport.TLSClientConfig.InsecureSkipVerify = true
		}
	}

	return client
}

// WithTransport sets a custom round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.config.FollowRedirect = false
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// WithCookieJar shares a cookie jar across requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.config.UserAgent = ua
		}
	}
}

// WithInsecureTLS skips certificate verification.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		c.config.InsecureTLS = insecure
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Send executes the request and reads the full body. Transport failures come
// back as *core.NetworkError; a done context yields the context's error.
func (c *Client) Send(ctx context.Context, spec *core.RequestSpec) (*core.ResponseRecord, error) {
	httpReq, err := c.toHTTPRequest(ctx, spec)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending request", "method", spec.Method, "url", httpReq.URL.String())
	startTime := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	elapsed := time.Since(startTime)

	record := core.NewSuccessRecord(
		spec,
		httpResp.StatusCode,
		statusText(httpResp),
		core.HeadersFromHTTP(httpResp.Header),
		bodyBytes,
		elapsed,
	)
	c.logger.Debug("response received",
		"status", httpResp.StatusCode,
		"size", len(bodyBytes),
		"elapsed", elapsed,
	)
	return record, nil
}

// toHTTPRequest converts a spec to an http.Request.
func (c *Client) toHTTPRequest(ctx context.Context, spec *core.RequestSpec) (*http.Request, error) {
	u, err := spec.ResolveURL()
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if spec.HasBody() {
		bodyReader = bytes.NewReader(spec.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, spec.Method.String(), u.String(), bodyReader)
	if err != nil {
		return nil, &core.InvalidRequestSpecError{Reason: err.Error()}
	}

	for _, h := range spec.Headers.Pairs() {
		httpReq.Header.Add(h.Name, h.Value)
	}
	if spec.HasBody() && httpReq.Header.Get("Content-Type") == "" && spec.ContentType != "" {
		httpReq.Header.Set("Content-Type", spec.ContentType)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	spec.Auth.Apply(httpReq)

	return httpReq, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	reason := describeError(err)
	c.logger.Debug("request failed", "reason", reason, "err", err)
	return &core.NetworkError{Reason: reason, Err: err}
}

func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	if text = strings.TrimSpace(text); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// describeError turns a transport error into a short human-readable cause.
func describeError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return fmt.Sprintf("DNS lookup failed: no such host %q", dnsErr.Name)
		}
		return fmt.Sprintf("DNS lookup failed for %q: %s", dnsErr.Name, dnsErr.Err)
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset by peer"
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "connection closed before the response was complete"
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "TLS certificate verification failed: " + certErr.Err.Error()
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return "TLS certificate signed by unknown authority"
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return "TLS handshake failed: server did not answer with TLS"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Op + ": " + opErr.Err.Error()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
