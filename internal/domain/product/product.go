package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. The cart treats
// it as an opaque, read-only payload.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Location    string
	Stock       int
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Filter narrows a catalog listing. Zero values are omitted from the query.
type Filter struct {
	Search   string
	Category string
	Location string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

// Catalog defines read operations for the remote product catalog.
type Catalog interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	Filter(ctx context.Context, f Filter) ([]Product, error)
}

// ClampQuantity clamps q into [1, stock]. It returns 0 when nothing is in
// stock.
func ClampQuantity(q, stock int) int {
	if stock <= 0 {
		return 0
	}
	return max(1, min(q, stock))
}
