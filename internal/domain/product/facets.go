package product

import "github.com/shopspring/decimal"

// DefaultMaxPrice is the price ceiling used when a listing has no priced
// products.
var DefaultMaxPrice = decimal.NewFromInt(1000)

// Facets summarizes a product listing for filter controls.
type Facets struct {
	Categories []string
	Locations  []string
	MaxPrice   decimal.Decimal
}

// ComputeFacets collects unique categories and locations in first-seen order
// and the highest price in products.
func ComputeFacets(products []Product) Facets {
	var (
		f          Facets
		categories = make(map[string]struct{})
		locations  = make(map[string]struct{})
		highest    = decimal.Zero
	)
	for _, p := range products {
		if _, ok := categories[p.Category]; !ok {
			categories[p.Category] = struct{}{}
			f.Categories = append(f.Categories, p.Category)
		}
		if _, ok := locations[p.Location]; !ok {
			locations[p.Location] = struct{}{}
			f.Locations = append(f.Locations, p.Location)
		}
		if p.Price.GreaterThan(highest) {
			highest = p.Price
		}
	}

	f.MaxPrice = highest
	if highest.IsZero() {
		f.MaxPrice = DefaultMaxPrice
	}
	return f
}
