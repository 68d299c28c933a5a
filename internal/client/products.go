package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

var _ product.Catalog = (*ProductAPI)(nil)

// ProductAPI implements product.Catalog over /products.
type ProductAPI struct {
	c *Client
}

// List returns every product.
func (a *ProductAPI) List(ctx context.Context) ([]product.Product, error) {
	return a.list(ctx, nil)
}

// Get returns a single product. A 404 maps to product.ErrNotFound.
func (a *ProductAPI) Get(ctx context.Context, id string) (*product.Product, error) {
	if err := checkID(id); err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	data, err := a.c.do(ctx, http.MethodGet, a.c.endpoint("products", id), nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, errors.Wrapf(notFound(product.ErrNotFound, err), "get product %q", id)
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := decodeBody(data, decodeProduct)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Search returns products matching query.
func (a *ProductAPI) Search(ctx context.Context, query string) ([]product.Product, error) {
	return a.list(ctx, url.Values{"search": {query}})
}

// Filter returns products matching f. Empty fields are omitted.
func (a *ProductAPI) Filter(ctx context.Context, f product.Filter) ([]product.Product, error) {
	return a.list(ctx, filterQuery(f))
}

func (a *ProductAPI) list(ctx context.Context, q url.Values) ([]product.Product, error) {
	u := a.c.endpoint("products")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	data, err := a.c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return decodeBody(data, decodeProducts)
}

func filterQuery(f product.Filter) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("search", f.Search)
	set("category", f.Category)
	set("location", f.Location)
	if f.MinPrice.Valid {
		set("minPrice", f.MinPrice.Decimal.String())
	}
	if f.MaxPrice.Valid {
		set("maxPrice", f.MaxPrice.Decimal.String())
	}
	return q
}
