package client

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

var _ order.Repository = (*OrderAPI)(nil)

// OrderAPI implements order.Repository over /orders.
type OrderAPI struct {
	c *Client
}

// List returns the order history.
func (a *OrderAPI) List(ctx context.Context) ([]order.Order, error) {
	data, err := a.c.do(ctx, http.MethodGet, a.c.endpoint("orders"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return decodeBody(data, decodeOrders)
}

// Get returns a single order. A 404 maps to order.ErrNotFound.
func (a *OrderAPI) Get(ctx context.Context, id string) (*order.Order, error) {
	if err := checkID(id); err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	data, err := a.c.do(ctx, http.MethodGet, a.c.endpoint("orders", id), nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, errors.Wrapf(notFound(order.ErrNotFound, err), "get order %q", id)
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := decodeBody(data, decodeOrder)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create places an order for the current server cart.
func (a *OrderAPI) Create(ctx context.Context, info order.CustomerInfo) (*order.Order, error) {
	data, err := a.c.do(ctx, http.MethodPost, a.c.endpoint("orders"), encodeCustomerInfo(info))
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	o, err := decodeBody(data, decodeOrder)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
