package httptransport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request identifier.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID returns a context whose outgoing requests reuse id instead of
// a generated one. Invalid ids are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request ID from the context.
// It returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns a middleware that sets X-Request-ID on every outgoing
// request. An id already on the request wins, then an id from the context,
// otherwise a new UUID v4 is generated. The request context passed downstream
// carries the chosen id.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			id := req.Header.Get(HeaderRequestID)
			if !isValidRequestID(id) {
				id = RequestIDFromContext(req.Context())
			}
			if !isValidRequestID(id) {
				id = uuid.New().String()
			}

			// RoundTrippers must not modify the caller's request.
			req = req.Clone(WithRequestID(req.Context(), id))
			req.Header.Set(HeaderRequestID, id)
			return next.RoundTrip(req)
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20-0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
