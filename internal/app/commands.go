package app

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// ErrUsage is returned for unknown commands or malformed arguments.
var ErrUsage = errors.New("usage error")

// ErrOutOfStock is returned when adding a product with no stock.
var ErrOutOfStock = errors.New("product is out of stock")

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"products": {"products [-search s] [-category c] [-location l] [-min-price p] [-max-price p]", (*App).listProducts},
	"product":  {"product <id>", (*App).showProduct},
	"cart":     {"cart", (*App).showCart},
	"add":      {"add <product-id> [quantity]", (*App).addItem},
	"remove":   {"remove <product-id>", (*App).removeItem},
	"set":      {"set <product-id> <quantity>", (*App).setQuantity},
	"clear":    {"clear", (*App).clearCart},
	"checkout": {"checkout -name <name> -address <address>", (*App).checkout},
	"orders":   {"orders", (*App).listOrders},
	"order":    {"order <id>", (*App).showOrder},
	"status":   {"status", (*App).status},
	"watch":    {"watch", (*App).watch},
}

// Exec runs the command named by args[0].
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return errors.Wrap(ErrUsage, "no command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.printUsage()
		return errors.Wrapf(ErrUsage, "unknown command %q", args[0])
	}

	a.lg.Debug("Running command", zap.String("command", args[0]))
	return cmd.run(a, ctx, args[1:])
}

func (a *App) printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintln(a.out, "Usage: storefront <command> [flags]")
	_, _ = fmt.Fprintln(a.out)
	for _, name := range names {
		_, _ = fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) listProducts(ctx context.Context, args []string) error {
	var (
		f                  product.Filter
		minPrice, maxPrice string
	)
	fs := a.flagSet("products")
	fs.StringVar(&f.Search, "search", "", "match name or description")
	fs.StringVar(&f.Category, "category", "", "exact category")
	fs.StringVar(&f.Location, "location", "", "exact location")
	fs.StringVar(&minPrice, "min-price", "", "lowest price")
	fs.StringVar(&maxPrice, "max-price", "", "highest price")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(ErrUsage, err.Error())
	}

	var err error
	if f.MinPrice, err = parsePrice(minPrice); err != nil {
		return err
	}
	if f.MaxPrice, err = parsePrice(maxPrice); err != nil {
		return err
	}

	var products []product.Product
	if isEmptyFilter(f) {
		products, err = a.catalog.List(ctx)
	} else {
		products, err = a.catalog.Filter(ctx, f)
	}
	if err != nil {
		return errors.Wrap(err, "list products")
	}

	if len(products) == 0 {
		_, _ = fmt.Fprintln(a.out, "No products found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tLOCATION\tPRICE\tSTOCK")
	for _, p := range products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Category, p.Location, formatPrice(p.Price), stockLabel(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	facets := product.ComputeFacets(products)
	_, _ = fmt.Fprintf(a.out, "\nCategories: %s\nLocations: %s\nMax price: %s\n",
		strings.Join(facets.Categories, ", "),
		strings.Join(facets.Locations, ", "),
		formatPrice(facets.MaxPrice),
	)
	return nil
}

func (a *App) showProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "product <id>")
	}
	p, err := a.catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	_, _ = fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	_, _ = fmt.Fprintf(tw, "Price:\t%s\n", formatPrice(p.Price))
	_, _ = fmt.Fprintf(tw, "Category:\t%s\n", p.Category)
	_, _ = fmt.Fprintf(tw, "Location:\t%s\n", p.Location)
	_, _ = fmt.Fprintf(tw, "Stock:\t%s\n", stockLabel(*p))
	if p.ImageURL != "" {
		_, _ = fmt.Fprintf(tw, "Image:\t%s\n", p.ImageURL)
	}
	return tw.Flush()
}

// loadCart initializes the manager. Load failures are reported through the
// manager's error message and returned.
func (a *App) loadCart(ctx context.Context) error {
	if err := a.cart.Initialize(ctx); err != nil {
		_, _ = fmt.Fprintf(a.out, "✗ %s\n", a.cart.ErrorMessage())
		return err
	}
	return nil
}

func (a *App) showCart(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Wrap(ErrUsage, "cart takes no arguments")
	}
	if err := a.loadCart(ctx); err != nil {
		return err
	}
	return a.printCart(a.cart.Snapshot())
}

func (a *App) printCart(s cart.Snapshot) error {
	if s.IsEmpty() {
		_, _ = fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range s.Lines {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			l.Product.ID, l.Product.Name, l.Quantity, formatPrice(l.Product.Price), formatPrice(l.Subtotal()))
	}
	_, _ = fmt.Fprintf(tw, "\t\t%d\t\t%s\n", s.TotalItems(), formatPrice(s.TotalPrice()))
	return tw.Flush()
}

func (a *App) addItem(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.Wrap(ErrUsage, "add <product-id> [quantity]")
	}
	quantity := 1
	if len(args) == 2 {
		q, err := parseQuantity(args[1])
		if err != nil {
			return err
		}
		quantity = q
	}

	p, err := a.catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	quantity = product.ClampQuantity(quantity, p.Stock)
	if quantity == 0 {
		return errors.Wrapf(ErrOutOfStock, "add %q", p.ID)
	}

	if err := a.loadCart(ctx); err != nil {
		return err
	}
	if err := a.cart.AddItem(ctx, *p, quantity); err != nil {
		return err
	}
	return a.printCart(a.cart.Snapshot())
}

func (a *App) removeItem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "remove <product-id>")
	}
	if err := a.loadCart(ctx); err != nil {
		return err
	}
	if err := a.cart.RemoveItem(ctx, args[0]); err != nil {
		return err
	}
	return a.printCart(a.cart.Snapshot())
}

func (a *App) setQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.Wrap(ErrUsage, "set <product-id> <quantity>")
	}
	quantity, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	if err := a.loadCart(ctx); err != nil {
		return err
	}

	if l, ok := a.cart.Snapshot().Find(args[0]); ok {
		quantity = product.ClampQuantity(quantity, l.Product.Stock)
		if quantity == 0 {
			return errors.Wrapf(ErrOutOfStock, "set %q", args[0])
		}
	}
	if err := a.cart.SetQuantity(ctx, args[0], quantity); err != nil {
		return err
	}
	return a.printCart(a.cart.Snapshot())
}

func (a *App) clearCart(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Wrap(ErrUsage, "clear takes no arguments")
	}
	if err := a.loadCart(ctx); err != nil {
		return err
	}
	return a.cart.Clear(ctx)
}

func (a *App) checkout(ctx context.Context, args []string) error {
	var req order.PlaceOrderRequest
	fs := a.flagSet("checkout")
	fs.StringVar(&req.CustomerName, "name", "", "customer name")
	fs.StringVar(&req.CustomerAddress, "address", "", "shipping address")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(ErrUsage, err.Error())
	}

	if err := a.loadCart(ctx); err != nil {
		return err
	}
	o, err := a.orders.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	return a.printOrder(o)
}

func (a *App) listOrders(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Wrap(ErrUsage, "orders takes no arguments")
	}
	orders, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		_, _ = fmt.Fprintln(a.out, "No orders yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			o.ID, formatDate(o), o.Status, o.TotalItems(), formatPrice(o.TotalPrice))
	}
	return tw.Flush()
}

func (a *App) showOrder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "order <id>")
	}
	o, err := a.orders.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return a.printOrder(o)
}

func (a *App) printOrder(o *order.Order) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Order:\t%s\n", o.ID)
	_, _ = fmt.Fprintf(tw, "Date:\t%s\n", formatDate(*o))
	_, _ = fmt.Fprintf(tw, "Status:\t%s\n", o.Status)
	_, _ = fmt.Fprintf(tw, "Customer:\t%s\n", o.CustomerName)
	_, _ = fmt.Fprintf(tw, "Address:\t%s\n", o.CustomerAddress)
	for _, l := range o.Items {
		_, _ = fmt.Fprintf(tw, "  %s x%d\t%s\n", l.Product.Name, l.Quantity, formatPrice(l.Subtotal()))
	}
	_, _ = fmt.Fprintf(tw, "Total:\t%s\n", formatPrice(o.TotalPrice))
	return tw.Flush()
}

func parseQuantity(s string) (int, error) {
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrUsage, "invalid quantity %q", s)
	}
	if q <= 0 {
		return 0, errors.Wrapf(cart.ErrInvalidQuantity, "quantity %d", q)
	}
	return q, nil
}

func parsePrice(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, errors.Wrapf(ErrUsage, "invalid price %q", s)
	}
	return decimal.NewNullDecimal(d), nil
}

func isEmptyFilter(f product.Filter) bool {
	return f.Search == "" && f.Category == "" && f.Location == "" &&
		!f.MinPrice.Valid && !f.MaxPrice.Valid
}

func formatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatDate(o order.Order) string {
	if o.OrderDate.IsZero() {
		return "-"
	}
	return o.OrderDate.Format("2006-01-02 15:04")
}

func stockLabel(p product.Product) string {
	if !p.InStock() {
		return "out of stock"
	}
	return strconv.Itoa(p.Stock)
}
