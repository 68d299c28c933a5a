package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/pkg/health"
)

const apiCheckName = "storefront-api"

// status loads the cart and the order history concurrently.
func (a *App) status(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Wrap(ErrUsage, "status takes no arguments")
	}

	var orders []order.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.cart.Initialize(gctx)
	})
	g.Go(func() error {
		var err error
		orders, err = a.orders.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		_, _ = fmt.Fprintf(a.out, "API:\tunreachable (%s)\n", a.cfg.APIURL)
		return errors.Wrap(err, "status")
	}

	_, _ = fmt.Fprintf(a.out, "API:\treachable (%s)\n", a.cfg.APIURL)
	_, _ = fmt.Fprintf(a.out, "Cart:\t%d items, %s\n", a.cart.TotalItems(), formatPrice(a.cart.TotalPrice()))
	_, _ = fmt.Fprintf(a.out, "Orders:\t%d\n", len(orders))
	return nil
}

type cartTotals struct {
	items int
	price string
}

// watch refreshes the cart every Watch.Interval, printing the totals when they
// change, and reports API health transitions until ctx is done.
func (a *App) watch(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Wrap(ErrUsage, "watch takes no arguments")
	}

	h := health.New()
	h.AddCheck(apiCheckName, a.cfg.Watch.Timeout, a.client.Ping)
	h.OnChange(func(name string, healthy bool, err error) {
		if healthy {
			a.lg.Info("Check recovered", zap.String("check", name))
			_, _ = fmt.Fprintf(a.out, "✓ %s is healthy again\n", name)
			return
		}
		a.lg.Warn("Check failing", zap.String("check", name), zap.Error(err))
		_, _ = fmt.Fprintf(a.out, "✗ %s is unhealthy: %v\n", name, err)
	})
	h.Start(ctx, a.cfg.Watch.Interval)
	defer h.Stop()

	var last *cartTotals
	refresh := func() {
		if err := a.cart.Initialize(ctx); err != nil {
			if ctx.Err() == nil {
				a.lg.Debug("Cart refresh failed", zap.Error(err))
			}
			return
		}
		cur := cartTotals{items: a.cart.TotalItems(), price: formatPrice(a.cart.TotalPrice())}
		if last != nil && *last == cur {
			return
		}
		last = &cur
		_, _ = fmt.Fprintf(a.out, "%s cart: %d items, %s\n", time.Now().Format(time.TimeOnly), cur.items, cur.price)
	}

	ticker := time.NewTicker(a.cfg.Watch.Interval)
	defer ticker.Stop()

	refresh()
	for {
		select {
		case <-ctx.Done():
			a.printHealth(h)
			return nil
		case <-ticker.C:
			refresh()
		}
	}
}

// printHealth summarizes the last known state of every check.
func (a *App) printHealth(h *health.Health) {
	if h.IsHealthy() {
		_, _ = fmt.Fprintln(a.out, "Health: all checks passing")
		return
	}
	for _, f := range h.Failures() {
		_, _ = fmt.Fprintf(a.out, "Health: ✗ %s: %s\n", f.Name, f.Message)
	}
}
