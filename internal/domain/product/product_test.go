package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		name  string
		q     int
		stock int
		want  int
	}{
		{name: "within range", q: 3, stock: 5, want: 3},
		{name: "above stock", q: 9, stock: 5, want: 5},
		{name: "below one", q: 0, stock: 5, want: 1},
		{name: "negative", q: -4, stock: 2, want: 1},
		{name: "out of stock", q: 1, stock: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampQuantity(tt.q, tt.stock))
		})
	}
}

func TestComputeFacets(t *testing.T) {
	products := []Product{
		{ID: "p1", Category: "fruit", Location: "Jakarta", Price: decimal.RequireFromString("2.50")},
		{ID: "p2", Category: "tools", Location: "Bandung", Price: decimal.RequireFromString("19.99")},
		{ID: "p3", Category: "fruit", Location: "Jakarta", Price: decimal.RequireFromString("4.00")},
	}

	f := ComputeFacets(products)

	assert.Equal(t, []string{"fruit", "tools"}, f.Categories)
	assert.Equal(t, []string{"Jakarta", "Bandung"}, f.Locations)
	assert.True(t, decimal.RequireFromString("19.99").Equal(f.MaxPrice))
}

func TestComputeFacets_Empty(t *testing.T) {
	f := ComputeFacets(nil)

	assert.Empty(t, f.Categories)
	assert.Empty(t, f.Locations)
	assert.True(t, DefaultMaxPrice.Equal(f.MaxPrice))
}

func TestInStock(t *testing.T) {
	assert.True(t, Product{Stock: 1}.InStock())
	assert.False(t, Product{Stock: 0}.InStock())
}
