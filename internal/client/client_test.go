package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/apitest"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

func newTestClient(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New(apitest.Catalog()...)
	c, err := New(Config{BaseURL: apitest.Start(t, srv)})
	require.NoError(t, err)
	return c, srv
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "/api", "://bad"} {
		_, err := New(Config{BaseURL: raw})
		assert.Error(t, err, raw)
	}
}

func TestCartAPI(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	api := c.Cart()

	snap, err := api.Get(ctx)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	snap, err = api.Add(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "Go-Kart Helmet", snap.Lines[0].Product.Name)
	assert.True(t, decimal.RequireFromString("89.99").Equal(snap.Lines[0].Product.Price))
	assert.Equal(t, 2, snap.Lines[0].Quantity)

	snap, err = api.Add(ctx, "p2", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.TotalItems())

	snap, err = api.Update(ctx, "p2", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.TotalItems())

	snap, err = api.Remove(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "p2", snap.Lines[0].Product.ID)

	require.NoError(t, api.Clear(ctx))
	assert.Empty(t, srv.Cart())
}

func TestCartAPI_Error(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Fail(http.MethodPost, "/cart", http.StatusConflict, "out of stock\n")

	_, err := c.Cart().Add(context.Background(), "p1", 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "out of stock", apiErr.Message)
}

func TestAPIError_DefaultMessage(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Fail(http.MethodGet, "/cart", http.StatusInternalServerError, "")

	err := c.Ping(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, DefaultErrorMessage, apiErr.Message)
}

func TestProductAPI(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	api := c.Products()

	all, err := api.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	p, err := api.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Racing Gloves", p.Name)
	assert.Equal(t, 3, p.Stock)

	_, err = api.Get(ctx, "nope")
	require.ErrorIs(t, err, product.ErrNotFound)
	assert.True(t, IsNotFound(err))

	found, err := api.Search(ctx, "gloves")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p2", found[0].ID)
}

func TestProductAPI_Filter(t *testing.T) {
	c, _ := newTestClient(t)

	tests := []struct {
		name   string
		filter product.Filter
		want   []string
	}{
		{"empty", product.Filter{}, []string{"p1", "p2", "p3"}},
		{"category", product.Filter{Category: "gear"}, []string{"p1", "p2"}},
		{"location", product.Filter{Location: "Berlin"}, []string{"p1", "p3"}},
		{
			"price range",
			product.Filter{
				MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(30)),
				MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			},
			[]string{"p3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Products().Filter(context.Background(), tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterQuery(t *testing.T) {
	q := filterQuery(product.Filter{
		Search:   "helmet",
		MaxPrice: decimal.NewNullDecimal(decimal.RequireFromString("99.5")),
	})
	assert.Equal(t, "maxPrice=99.5&search=helmet", q.Encode())
}

func TestOrderAPI(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	_, err := c.Cart().Add(ctx, "p1", 2)
	require.NoError(t, err)

	o, err := c.Orders().Create(ctx, order.CustomerInfo{
		CustomerName:    "Ada",
		CustomerAddress: "12 Analytical Row",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, 2, o.TotalItems())
	assert.True(t, decimal.RequireFromString("179.98").Equal(o.TotalPrice))
	assert.False(t, o.OrderDate.IsZero())
	assert.Len(t, srv.Orders(), 1)

	orders, err := c.Orders().List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	got, err := c.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.CustomerName)

	_, err = c.Orders().Get(ctx, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestDo_Headers(t *testing.T) {
	var gotAccept, gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c, err := New(Config{BaseURL: ts.URL + "/"})
	require.NoError(t, err)

	_, err = c.Cart().Add(context.Background(), "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "application/json", gotContentType)
}

func TestEndpointEscapesSegments(t *testing.T) {
	c, err := New(Config{BaseURL: "http://example.com/api"})
	require.NoError(t, err)

	u := c.endpoint("products", "a/b c")
	assert.Equal(t, "http://example.com/api/products/a%2Fb%20c", u.String())
}

func TestUnaddressableIDs(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c, err := New(Config{BaseURL: ts.URL + "/api"})
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", ".", ".."} {
		_, err := c.Cart().Remove(ctx, id)
		require.ErrorIs(t, err, ErrInvalidID, "remove %q", id)

		_, err = c.Products().Get(ctx, id)
		require.ErrorIs(t, err, ErrInvalidID, "product %q", id)

		_, err = c.Orders().Get(ctx, id)
		require.ErrorIs(t, err, ErrInvalidID, "order %q", id)
	}
	assert.Empty(t, paths)

	_, err = c.Cart().Remove(ctx, "a/..")
	require.NoError(t, err)
	assert.Equal(t, []string{"DELETE /api/cart/a%2F.."}, paths)
}

func TestEndpointKeepsSegments(t *testing.T) {
	c, err := New(Config{BaseURL: "http://example.com"})
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/cart", c.endpoint("cart").String())
	assert.Equal(t, "http://example.com/cart/..%3F", c.endpoint("cart", "..?").String())
}
