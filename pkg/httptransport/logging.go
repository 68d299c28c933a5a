package httptransport

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// LogRequests returns a middleware that logs every outgoing request with the
// logger stored in the request context.
func LogRequests() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			lg := zctx.From(req.Context()).With(
				zap.String("method", req.Method),
				zap.String("url", req.URL.Redacted()),
				zap.String("request_id", RequestIDFromContext(req.Context())),
			)

			resp, err := next.RoundTrip(req)
			if err != nil {
				lg.Warn("API request failed",
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				return nil, err
			}

			lg.Debug("API request",
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", time.Since(start)),
			)
			return resp, nil
		})
	}
}
