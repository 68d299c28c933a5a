package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order.
type Status string

// Order statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}

// Order represents a placed customer order.
type Order struct {
	ID              string
	Items           []cart.Line
	TotalPrice      decimal.Decimal
	CustomerName    string
	CustomerAddress string
	OrderDate       time.Time
	Status          Status
}

// TotalItems returns the number of units across all order lines.
func (o *Order) TotalItems() int {
	return cart.Snapshot{Lines: o.Items}.TotalItems()
}

// CustomerInfo is the shipping information submitted at checkout.
type CustomerInfo struct {
	CustomerName    string
	CustomerAddress string
}

// Repository defines remote operations on orders.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Create(ctx context.Context, info CustomerInfo) (*Order, error)
}
