// File: internal/apiclient/client.go

// Package apiclient issues the REST calls scenarios make against the AUT's
// JSON APIs. Responses capture the body as text and parse JSON lazily;
// non-2xx statuses are returned to the caller, never raised, because whether
// a status is an error is scenario policy.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/veraqa/shoptest/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request describes one HTTP call. JSONBody, when non-nil, is encoded as
// UTF-8 JSON and sent with a matching Content-Type.
type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	JSONBody any
	Timeout  time.Duration
}

// Response is the captured result of a call. BodyText always holds the full
// decompressed body; JSON decoding happens on demand.
type Response struct {
	Status   int
	Headers  http.Header
	BodyText string

	parsed    map[string]any
	parseErr  error
	parseDone bool
}

// JSON decodes the body into out. A body that is not valid JSON yields an
// error wrapping schemas.ErrMalformedResponse.
func (r *Response) JSON(out any) error {
	if err := json.Unmarshal([]byte(r.BodyText), out); err != nil {
		return fmt.Errorf("decoding body %q: %v: %w", truncate(r.BodyText, 120), err, schemas.ErrMalformedResponse)
	}
	return nil
}

// Fields decodes the body as a generic JSON object, memoized across calls.
// Forbidden-field assertions run against this view rather than typed structs
// so that unexpected fields are observable.
func (r *Response) Fields() (map[string]any, error) {
	if !r.parseDone {
		r.parseDone = true
		if err := json.Unmarshal([]byte(r.BodyText), &r.parsed); err != nil {
			r.parseErr = fmt.Errorf("body is not a JSON object: %w", schemas.ErrMalformedResponse)
		}
	}
	return r.parsed, r.parseErr
}

// HasField reports whether the decoded body carries the top-level key. A
// non-JSON body reports false.
func (r *Response) HasField(name string) bool {
	fields, err := r.Fields()
	if err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Client is the scenario-scoped HTTP client. One client per scenario; the
// cookie jar is never shared across scenarios.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *zap.Logger
}

// New builds a client with bounded connection, read and total deadlines. The
// limiter paces bursts so that repeated-login scenarios exercise the AUT's
// lockout counter rather than its rate limiter.
func New(timeout time.Duration, logger *zap.Logger) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: newDecompressionTransport(transport),
			Jar:       jar,
			Timeout:   timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		timeout: timeout,
		logger:  logger.Named("apiclient"),
	}
}

// Do executes the request and captures the response. Timeouts of any flavour
// are reported as errors wrapping schemas.ErrTimeout.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		return nil, fmt.Errorf("request pacing interrupted: %w", schemas.ErrTimeout)
	}

	var body *bytes.Reader
	if req.JSONBody != nil {
		encoded, err := json.Marshal(req.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if req.JSONBody != nil {
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	c.logger.Debug("Issuing request", zap.String("method", req.Method), zap.String("url", req.URL))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%s %s: %v: %w", req.Method, req.URL, err, schemas.ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	text, err := readAll(callCtx, resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("reading body of %s %s: %w", req.Method, req.URL, schemas.ErrTimeout)
		}
		return nil, fmt.Errorf("reading body of %s %s: %w", req.Method, req.URL, err)
	}

	return &Response{
		Status:   resp.StatusCode,
		Headers:  resp.Header,
		BodyText: text,
	}, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
