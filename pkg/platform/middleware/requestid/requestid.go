// Package requestid assigns each request a correlation ID, honoring an
// incoming X-Request-ID header so IDs survive proxy hops.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"zkdao/pkg/requestcontext"
)

// HeaderName is the correlation header read from requests and echoed on
// responses.
const HeaderName = "X-Request-ID"

// Middleware ensures every request carries a request ID in context and on the
// response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderName)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderName, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
