package assetcache

import (
	"context"
	"net/http"
)

// Fetcher is the worker's view of "the network": in production it wraps
// the static file handler serving the built web app, in tests a fake
// that can be told to fail.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*Response, error)
}

// HandlerFetcher adapts an http.Handler into a Fetcher.
type HandlerFetcher struct {
	handler http.Handler
}

func NewHandlerFetcher(handler http.Handler) *HandlerFetcher {
	return &HandlerFetcher{
		handler: handler,
	}
}

func (f *HandlerFetcher) Fetch(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	rec := &responseRecorder{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
	f.handler.ServeHTTP(rec, req)

	return &Response{
		StatusCode: rec.statusCode,
		Header:     rec.header,
		Body:       rec.body,
	}, nil
}

type responseRecorder struct {
	header     http.Header
	body       []byte
	statusCode int
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return len(b), nil
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}
