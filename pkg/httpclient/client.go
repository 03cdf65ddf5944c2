// Package httpclient holds the GET-only HTTP surface the fetchers use, a
// resty implementation of it and a per-host request limiter.
package httpclient

import "context"

// Response exposes the parts of an HTTP response the fetchers read.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client performs GET requests. Non-2xx statuses are returned as responses,
// not errors.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, url string, headers map[string]string) (Response, error)

// Get calls f.
func (f ClientFunc) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return f(ctx, url, headers)
}
