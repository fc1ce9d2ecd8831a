// Package testutil provides request context helpers for handler tests.
package testutil

import (
	"net/http"
	"time"

	"zkdao/pkg/domain"
	"zkdao/pkg/requestcontext"
)

// WithCaller adds a caller address to the request context. This simulates
// what the auth middleware would do for authenticated requests. Invalid
// addresses are silently ignored.
func WithCaller(req *http.Request, caller string) *http.Request {
	addr, err := domain.ParseAddress(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), addr))
}

// WithTime pins the request clock so time-dependent handlers are
// deterministic under test.
func WithTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
