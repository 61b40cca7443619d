// Package transport sends resolved requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"hitman/internal/request"
)

// Options configures a Client.
type Options struct {
	UserAgent string
	// Timeout bounds a whole exchange; zero means no limit.
	Timeout time.Duration
	Jar     http.CookieJar
	// Connections sizes the idle connection pool per host.
	Connections int
}

// Client is safe for concurrent use; flurry workers share one.
type Client struct {
	http      *http.Client
	userAgent string
}

// Response is a received response with its body read.
type Response struct {
	Status int
	Proto  string
	Header http.Header
	Body   []byte
	// Elapsed is the time from sending until the response headers arrived.
	Elapsed time.Duration
}

// JSON decodes the body. ok is false when it is not JSON.
func (r *Response) JSON() (any, bool) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, false
	}
	return v, true
}

// New creates a client.
func New(opts Options) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Connections > 0 {
		tr.MaxIdleConnsPerHost = opts.Connections
		if tr.MaxIdleConns < opts.Connections {
			tr.MaxIdleConns = opts.Connections
		}
	}
	return &Client{
		http: &http.Client{
			Transport: tr,
			Timeout:   opts.Timeout,
			Jar:       opts.Jar,
		},
		userAgent: opts.UserAgent,
	}
}

// Build converts req into an *http.Request.
func (c *Client) Build(ctx context.Context, req *request.Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := req.Body.Payload()
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			hr.Header.Add(name, v)
		}
	}
	if c.userAgent != "" && hr.Header.Get("User-Agent") == "" {
		hr.Header.Set("User-Agent", c.userAgent)
	}
	if host := req.Header.Get("Host"); host != "" {
		hr.Host = host
	}
	return hr, nil
}

// Send performs req and reads the whole body.
func (c *Client) Send(ctx context.Context, req *request.Request) (*Response, error) {
	return c.Stream(ctx, req, nil)
}

// Stream performs req. When onEvent is set and the response is an event
// stream, events are delivered as they arrive and Body holds the raw
// stream; otherwise the body is read whole.
func (c *Client) Stream(ctx context.Context, req *request.Request, onEvent func(Event) error) (*Response, error) {
	hr, err := c.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.http.Do(hr)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	out := &Response{
		Status:  res.StatusCode,
		Proto:   res.Proto,
		Header:  res.Header,
		Elapsed: time.Since(start),
	}

	if onEvent != nil && IsEventStream(res.Header) {
		var raw bytes.Buffer
		err = ReadEvents(io.TeeReader(res.Body, &raw), onEvent)
		out.Body = raw.Bytes()
		if err != nil {
			return out, fmt.Errorf("read event stream: %w", err)
		}
		return out, nil
	}

	if out.Body, err = io.ReadAll(res.Body); err != nil {
		return out, fmt.Errorf("read body: %w", err)
	}
	return out, nil
}

// Status performs req and discards the body, keeping the connection
// reusable. It is the SendFunc used by flurry and monitor.
func (c *Client) Status(ctx context.Context, req *request.Request) (int, time.Duration, error) {
	hr, err := c.Build(ctx, req)
	if err != nil {
		return 0, 0, err
	}

	start := time.Now()
	res, err := c.http.Do(hr)
	if err != nil {
		return 0, 0, err
	}
	elapsed := time.Since(start)
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
	return res.StatusCode, elapsed, nil
}

// IsEventStream reports whether the response carries server-sent events.
func IsEventStream(h http.Header) bool {
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && mt == "text/event-stream"
}

// CloseIdleConnections closes pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}
