package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	orders    []Order
	lastInfo  *CustomerInfo
	createErr error
	listErr   error
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	return m.orders, m.listErr
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) Create(_ context.Context, info CustomerInfo) (*Order, error) {
	m.lastInfo = &info
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &Order{
		ID:              "o1",
		TotalPrice:      decimal.RequireFromString("20.00"),
		CustomerName:    info.CustomerName,
		CustomerAddress: info.CustomerAddress,
		OrderDate:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:          StatusPending,
	}, nil
}

type mockCart struct {
	snapshot cart.Snapshot
	cleared  bool
	clearErr error
}

func (m *mockCart) Snapshot() cart.Snapshot {
	return m.snapshot
}

func (m *mockCart) Clear(_ context.Context) error {
	m.cleared = true
	return m.clearErr
}

type recordingNotifier struct {
	items []cart.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n cart.Notification) {
	r.items = append(r.items, n)
}

// --- Helpers ---

func newFilledCart() *mockCart {
	return &mockCart{snapshot: cart.Snapshot{Lines: []cart.Line{{
		Product: product.Product{
			ID:    "p1",
			Name:  "Widget",
			Price: decimal.NewFromInt(10),
			Stock: 5,
		},
		Quantity: 2,
	}}}}
}

var validRequest = PlaceOrderRequest{
	CustomerName:    "  Ada Lovelace ",
	CustomerAddress: "12 Analytical Row",
}

// --- Tests ---

func TestPlaceOrder(t *testing.T) {
	repo := &mockOrderRepo{}
	c := newFilledCart()
	notifier := &recordingNotifier{}
	svc := NewService(repo, c, ServiceConfig{Notifier: notifier})

	o, err := svc.PlaceOrder(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
	require.NotNil(t, repo.lastInfo)
	assert.Equal(t, "Ada Lovelace", repo.lastInfo.CustomerName)
	assert.True(t, c.cleared)
	require.Len(t, notifier.items, 1)
	assert.Equal(t, "Order placed successfully", notifier.items[0].Title)
}

func TestPlaceOrder_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"no name", PlaceOrderRequest{CustomerAddress: "addr"}},
		{"no address", PlaceOrderRequest{CustomerName: "name"}},
		{"blank", PlaceOrderRequest{CustomerName: "  ", CustomerAddress: "\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepo{}
			svc := NewService(repo, newFilledCart(), ServiceConfig{})

			_, err := svc.PlaceOrder(context.Background(), tt.req)

			require.ErrorIs(t, err, ErrMissingCustomerInfo)
			assert.Nil(t, repo.lastInfo)
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo, &mockCart{}, ServiceConfig{})

	_, err := svc.PlaceOrder(context.Background(), validRequest)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, repo.lastInfo)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	repo := &mockOrderRepo{createErr: errors.New("payment gateway down")}
	c := newFilledCart()
	notifier := &recordingNotifier{}
	svc := NewService(repo, c, ServiceConfig{Notifier: notifier})

	_, err := svc.PlaceOrder(context.Background(), validRequest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.False(t, c.cleared)
	require.Len(t, notifier.items, 1)
	assert.Equal(t, cart.KindError, notifier.items[0].Kind)
}

func TestPlaceOrder_ClearFailureDoesNotFailCheckout(t *testing.T) {
	c := newFilledCart()
	c.clearErr = errors.New("cart service down")
	svc := NewService(&mockOrderRepo{}, c, ServiceConfig{})

	o, err := svc.PlaceOrder(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
	assert.True(t, c.cleared)
}

func TestListAndGet(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{
		{ID: "o1", Status: StatusShipped},
		{ID: "o2", Status: StatusDelivered},
	}}
	svc := NewService(repo, &mockCart{}, ServiceConfig{})

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	o, err := svc.Get(context.Background(), "o2")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusDelivered.Valid())
	assert.False(t, Status("lost").Valid())
}
