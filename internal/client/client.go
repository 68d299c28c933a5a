// Package client is a REST/JSON client for the storefront API: cart, product
// catalog and orders.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// DefaultErrorMessage is used when a failed response carries no body.
const DefaultErrorMessage = "An error occurred"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = DefaultErrorMessage
	}
	return &APIError{StatusCode: status, Message: msg}
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Config holds client settings.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the storefront API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
	}, nil
}

// Cart returns the cart endpoints.
func (c *Client) Cart() *CartAPI {
	return &CartAPI{c: c}
}

// Products returns the catalog endpoints.
func (c *Client) Products() *ProductAPI {
	return &ProductAPI{c: c}
}

// Orders returns the order endpoints.
func (c *Client) Orders() *OrderAPI {
	return &OrderAPI{c: c}
}

// Ping checks that the API answers GET /cart with a 2xx status.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.endpoint("cart"), nil)
	return err
}

// ErrInvalidID is returned for resource ids that cannot form a path segment.
var ErrInvalidID = errors.New("invalid resource id")

// checkID rejects ids that would address a different resource once the path
// is cleaned, e.g. "" or "..".
func checkID(id string) error {
	switch id {
	case "", ".", "..":
		return errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return nil
}

// endpoint appends escaped path segments to the base URL verbatim. Segments
// are never cleaned or dropped.
func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.base
	p, raw := u.Path, u.EscapedPath()
	for _, s := range segments {
		p += "/" + s
		raw += "/" + url.PathEscape(s)
	}
	u.Path, u.RawPath = p, raw
	return &u
}

// notFoundError ties a domain not-found sentinel to the APIError behind it.
type notFoundError struct {
	target error
	err    error
}

func notFound(target, err error) error {
	return &notFoundError{target: target, err: err}
}

func (e *notFoundError) Error() string {
	return e.target.Error() + ": " + e.err.Error()
}

func (e *notFoundError) Unwrap() []error {
	return []error{e.target, e.err}
}

// do performs the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method string, u *url.URL, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, u.Path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}
