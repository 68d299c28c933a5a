package client

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

var _ cart.Remote = (*CartAPI)(nil)

// CartAPI implements cart.Remote over /cart.
type CartAPI struct {
	c *Client
}

// Get returns the server cart.
func (a *CartAPI) Get(ctx context.Context) (cart.Snapshot, error) {
	data, err := a.c.do(ctx, http.MethodGet, a.c.endpoint("cart"), nil)
	if err != nil {
		return cart.Snapshot{}, errors.Wrap(err, "get cart")
	}
	return decodeSnapshot(data)
}

// Add adds quantity units of productID.
func (a *CartAPI) Add(ctx context.Context, productID string, quantity int) (cart.Snapshot, error) {
	data, err := a.c.do(ctx, http.MethodPost, a.c.endpoint("cart"), encodeQuantity(productID, quantity))
	if err != nil {
		return cart.Snapshot{}, errors.Wrap(err, "add to cart")
	}
	return decodeSnapshot(data)
}

// Update sets the quantity of productID.
func (a *CartAPI) Update(ctx context.Context, productID string, quantity int) (cart.Snapshot, error) {
	data, err := a.c.do(ctx, http.MethodPut, a.c.endpoint("cart"), encodeQuantity(productID, quantity))
	if err != nil {
		return cart.Snapshot{}, errors.Wrap(err, "update quantity")
	}
	return decodeSnapshot(data)
}

// Remove deletes the line for productID.
func (a *CartAPI) Remove(ctx context.Context, productID string) (cart.Snapshot, error) {
	if err := checkID(productID); err != nil {
		return cart.Snapshot{}, errors.Wrap(err, "remove from cart")
	}
	data, err := a.c.do(ctx, http.MethodDelete, a.c.endpoint("cart", productID), nil)
	if err != nil {
		return cart.Snapshot{}, errors.Wrap(err, "remove from cart")
	}
	return decodeSnapshot(data)
}

// Clear empties the server cart. The response body is ignored.
func (a *CartAPI) Clear(ctx context.Context) error {
	if _, err := a.c.do(ctx, http.MethodDelete, a.c.endpoint("cart"), nil); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func decodeSnapshot(data []byte) (cart.Snapshot, error) {
	lines, err := decodeBody(data, decodeLines)
	if err != nil {
		return cart.Snapshot{}, err
	}
	return cart.Snapshot{Lines: lines}, nil
}
