package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-laravel/framework/multibind"
)

// RequestIDHeader carries the request scope id in and out of the server.
const RequestIDHeader = "X-Request-Id"

// Request wraps *http.Request with Laravel-style helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Context returns the request context, which carries the list scope.
func (req *Request) Context() context.Context { return req.raw.Context() }

// Query returns a query-string value or the fallback.
func (req *Request) Query(key string, fallback ...string) string {
	if v := req.raw.URL.Query().Get(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// QueryBool parses a query-string flag such as ?verbose=1.
func (req *Request) QueryBool(key string, fallback bool) bool {
	v := req.raw.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// RouteParam returns a chi URL parameter, like $request->route('id').
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// RequestID returns the id of the list scope attached by the router, or
// the incoming header when no scope is attached.
func (req *Request) RequestID() string {
	if id, ok := multibind.RequestID(req.raw.Context()); ok {
		return id
	}
	return strings.TrimSpace(req.Header(RequestIDHeader))
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }
