// Package apitest provides an in-memory storefront API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Wire types are defined locally so the fake stays independent of the
// client codec it is used to test.

// Product is the wire shape of a catalog product.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
	Stock       int     `json:"stock"`
}

// Line is the wire shape of a cart line.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Order is the wire shape of an order.
type Order struct {
	ID              string  `json:"id"`
	Items           []Line  `json:"items"`
	TotalPrice      float64 `json:"totalPrice"`
	CustomerName    string  `json:"customerName"`
	CustomerAddress string  `json:"customerAddress"`
	OrderDate       string  `json:"orderDate"`
	Status          string  `json:"status"`
}

type quantityRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type customerRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerAddress string `json:"customerAddress"`
}

type failure struct {
	status int
	body   string
}

// Server is a fake storefront API. It is safe for concurrent use.
type Server struct {
	mux *http.ServeMux

	mu       sync.Mutex
	products []Product
	cart     []Line
	orders   []Order
	failures map[string]failure
	requests []string
	delay    time.Duration
	now      func() time.Time
}

// New creates a Server seeded with products.
func New(products ...Product) *Server {
	s := &Server{
		products: slices.Clone(products),
		failures: make(map[string]failure),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", s.getCart)
	mux.HandleFunc("POST /cart", s.addToCart)
	mux.HandleFunc("PUT /cart", s.updateCart)
	mux.HandleFunc("DELETE /cart", s.clearCart)
	mux.HandleFunc("DELETE /cart/{id}", s.removeFromCart)
	mux.HandleFunc("GET /products", s.listProducts)
	mux.HandleFunc("GET /products/{id}", s.getProduct)
	mux.HandleFunc("GET /orders", s.listOrders)
	mux.HandleFunc("POST /orders", s.createOrder)
	mux.HandleFunc("GET /orders/{id}", s.getOrder)
	s.mux = mux

	return s
}

// Start serves s on a test server mounted at /api and returns its base URL.
func Start(t testing.TB, s *Server) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", s))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, key)
	f, failing := s.failures[key]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if failing {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Fail makes every request matching method and path answer with status and
// body until Recover is called.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover removes all injected failures.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

// SetDelay delays every response by d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetCart replaces the server cart.
func (s *Server) SetCart(lines ...Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = slices.Clone(lines)
}

// Cart returns a copy of the server cart.
func (s *Server) Cart() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cart)
}

// Orders returns a copy of the placed orders.
func (s *Server) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Requests returns the "METHOD /path" of every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.cartLocked())
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.productLocked(req.ProductID)
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if i := s.lineLocked(req.ProductID); i >= 0 {
		s.cart[i].Quantity += req.Quantity
	} else {
		s.cart = append(s.cart, Line{Product: p, Quantity: req.Quantity})
	}
	writeJSON(w, http.StatusOK, s.cartLocked())
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.lineLocked(req.ProductID)
	if i < 0 {
		http.Error(w, "item not in cart", http.StatusNotFound)
		return
	}
	if req.Quantity <= 0 {
		s.cart = slices.Delete(s.cart, i, i+1)
	} else {
		s.cart[i].Quantity = req.Quantity
	}
	writeJSON(w, http.StatusOK, s.cartLocked())
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.lineLocked(id); i >= 0 {
		s.cart = slices.Delete(s.cart, i, i+1)
	}
	writeJSON(w, http.StatusOK, s.cartLocked())
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category")
	location := q.Get("location")
	minPrice, minOK := parsePrice(q.Get("minPrice"))
	maxPrice, maxOK := parsePrice(q.Get("maxPrice"))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Product{}
	for _, p := range s.products {
		switch {
		case search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search):
		case category != "" && p.Category != category:
		case location != "" && p.Location != location:
		case minOK && p.Price < minPrice:
		case maxOK && p.Price > maxPrice:
		default:
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.productLocked(r.PathValue("id"))
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.orders
	if out == nil {
		out = []Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.ID == id {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}
	http.Error(w, "order not found", http.StatusNotFound)
}

// createOrder snapshots the cart into an order. The cart itself is left for
// the client to clear.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.CustomerName == "" || req.CustomerAddress == "" {
		http.Error(w, "customer name and address are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		http.Error(w, "cart is empty", http.StatusBadRequest)
		return
	}

	var total float64
	for _, l := range s.cart {
		total += l.Product.Price * float64(l.Quantity)
	}
	o := Order{
		ID:              "order-" + strconv.Itoa(len(s.orders)+1),
		Items:           slices.Clone(s.cart),
		TotalPrice:      total,
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		OrderDate:       s.now().UTC().Format(time.RFC3339),
		Status:          "pending",
	}
	s.orders = append(s.orders, o)
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) cartLocked() []Line {
	if s.cart == nil {
		return []Line{}
	}
	return s.cart
}

func (s *Server) lineLocked(productID string) int {
	return slices.IndexFunc(s.cart, func(l Line) bool { return l.Product.ID == productID })
}

func (s *Server) productLocked(id string) (Product, bool) {
	i := slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
	if i < 0 {
		return Product{}, false
	}
	return s.products[i], true
}

func parsePrice(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Catalog is a small product set used across tests.
func Catalog() []Product {
	return []Product{
		{ID: "p1", Name: "Go-Kart Helmet", Description: "Full face helmet", Price: 89.99, Category: "gear", Location: "Berlin", Stock: 10},
		{ID: "p2", Name: "Racing Gloves", Description: "Grip for the track", Price: 24.50, Category: "gear", Location: "Munich", Stock: 3},
		{ID: "p3", Name: "Track Day Pass", Description: "One session", Price: 45, Category: "experience", Location: "Berlin", Stock: 0},
	}
}
