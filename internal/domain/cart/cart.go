// Package cart keeps a local shopping cart consistent with a remote,
// server-authoritative cart using optimistic updates.
package cart

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// Line pairs a product with a positive quantity.
type Line struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns price × quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the complete set of cart lines at a point in time. It holds at
// most one line per product ID; line order carries no meaning.
type Snapshot struct {
	Lines []Line
}

// Len returns the number of distinct products in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Lines)
}

// IsEmpty reports whether the snapshot has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// TotalItems returns the sum of all line quantities.
func (s Snapshot) TotalItems() int {
	total := 0
	for _, l := range s.Lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the sum of price × quantity over all lines.
func (s Snapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Find returns the line for productID, if present.
func (s Snapshot) Find(productID string) (Line, bool) {
	if i := s.index(productID); i >= 0 {
		return s.Lines[i], true
	}
	return Line{}, false
}

func (s Snapshot) index(productID string) int {
	return slices.IndexFunc(s.Lines, func(l Line) bool {
		return l.Product.ID == productID
	})
}

// Clone returns a copy whose line slice does not alias s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Lines: slices.Clone(s.Lines)}
}

// Remote is the server-authoritative cart. Mutating calls return the
// updated remote snapshot.
type Remote interface {
	Get(ctx context.Context) (Snapshot, error)
	Add(ctx context.Context, productID string, quantity int) (Snapshot, error)
	Update(ctx context.Context, productID string, quantity int) (Snapshot, error)
	Remove(ctx context.Context, productID string) (Snapshot, error)
	Clear(ctx context.Context) error
}
