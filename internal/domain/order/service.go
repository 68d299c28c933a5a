package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Sentinel errors for checkout validation.
var (
	ErrMissingCustomerInfo = errors.New("customer name and address are required")
	ErrEmptyCart           = errors.New("cart is empty")
)

// Cart is the subset of the cart manager used at checkout.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) error
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerName    string
	CustomerAddress string
}

// ServiceConfig holds non-dependency configuration for the Service.
type ServiceConfig struct {
	Notifier cart.Notifier
	Logger   *zap.Logger
}

// Service encapsulates checkout and order history.
type Service struct {
	orders   Repository
	cart     Cart
	notifier cart.Notifier
	lg       *zap.Logger
}

// NewService creates an order Service.
func NewService(orders Repository, c Cart, cfg ServiceConfig) *Service {
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{
		orders:   orders,
		cart:     c,
		notifier: cfg.Notifier,
		lg:       lg.Named("order"),
	}
}

// PlaceOrder validates the shipping information, creates the order remotely
// and clears the cart. A failure to clear the cart after the order exists is
// logged and does not fail the checkout.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	info := CustomerInfo{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
	}
	if info.CustomerName == "" || info.CustomerAddress == "" {
		return nil, ErrMissingCustomerInfo
	}
	if s.cart.Snapshot().IsEmpty() {
		return nil, ErrEmptyCart
	}

	o, err := s.orders.Create(ctx, info)
	if err != nil {
		cart.Emit(ctx, s.lg, s.notifier, cart.Notification{
			Kind:    cart.KindError,
			Title:   "Error",
			Message: "Failed to place your order. Please try again.",
		})
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.cart.Clear(ctx); err != nil {
		s.lg.Warn("Order placed but cart was not cleared",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	cart.Emit(ctx, s.lg, s.notifier, cart.Notification{
		Kind:    cart.KindSuccess,
		Title:   "Order placed successfully",
		Message: "Thank you for your purchase!",
	})
	s.lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("total", o.TotalPrice.StringFixed(2)),
	)
	return o, nil
}

// List returns the order history.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns a single order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}
