package httptransport

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingTransport struct {
	req *http.Request
}

func (c *capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.req = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestRequestID_Generated(t *testing.T) {
	next := &capturingTransport{}
	rt := RequestID()(next)
	req := newRequest(t, context.Background(), "http://api.test/cart")

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	id := next.req.Header.Get(HeaderRequestID)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, RequestIDFromContext(next.req.Context()))
	// The caller's request is left untouched.
	assert.Empty(t, req.Header.Get(HeaderRequestID))
}

func TestRequestID_FromContext(t *testing.T) {
	next := &capturingTransport{}
	rt := RequestID()(next)
	ctx := WithRequestID(context.Background(), "checkout-42")

	resp, err := rt.RoundTrip(newRequest(t, ctx, "http://api.test/orders"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "checkout-42", next.req.Header.Get(HeaderRequestID))
}

func TestRequestID_HeaderWins(t *testing.T) {
	next := &capturingTransport{}
	rt := RequestID()(next)
	req := newRequest(t, WithRequestID(context.Background(), "from-ctx"), "http://api.test/cart")
	req.Header.Set(HeaderRequestID, "from-header")

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "from-header", next.req.Header.Get(HeaderRequestID))
}

func TestRequestID_InvalidReplaced(t *testing.T) {
	next := &capturingTransport{}
	rt := RequestID()(next)
	ctx := WithRequestID(context.Background(), strings.Repeat("x", 200))

	resp, err := rt.RoundTrip(newRequest(t, ctx, "http://api.test/cart"))
	require.NoError(t, err)
	resp.Body.Close()

	_, err = uuid.Parse(next.req.Header.Get(HeaderRequestID))
	assert.NoError(t, err)
}

func TestWrap_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	rt := Wrap(&capturingTransport{}, mark("outer"), mark("inner"))
	resp, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.test/"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"outer", "inner"}, order)
}
