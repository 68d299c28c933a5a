// Package app wires the storefront client together and implements its
// commands.
package app

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/notify"
	"github.com/xenking/kart-storefront/pkg/httptransport"
)

// Options holds optional dependencies for New.
type Options struct {
	// Out receives command output and notifications.
	Out io.Writer
	// Base is the innermost transport, defaults to http.DefaultTransport.
	Base http.RoundTripper
	// MeterProvider and TracerProvider default to no-op providers.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// App holds the wired storefront client.
type App struct {
	cfg *Config
	lg  *zap.Logger
	out io.Writer

	client   *client.Client
	catalog  product.Catalog
	cart     *cart.Manager
	orders   *order.Service
	notifier cart.Notifier
}

// New creates all dependencies. The rate limiter cleanup goroutine stops when
// ctx is done.
func New(ctx context.Context, lg *zap.Logger, cfg *Config, opts Options) (*App, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	// Health transitions are printed from a background goroutine.
	out := &syncWriter{w: opts.Out}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}

	policy, err := cfg.CartPolicy()
	if err != nil {
		return nil, err
	}

	transport := httptransport.Wrap(
		otelhttp.NewTransport(base,
			otelhttp.WithMeterProvider(opts.MeterProvider),
			otelhttp.WithTracerProvider(opts.TracerProvider),
		),
		httptransport.RequestID(),
		httptransport.RateLimitWithCleanup(ctx, httptransport.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			MaxWait: cfg.RateLimit.MaxWait,
		}),
		httptransport.LogRequests(),
	)

	c, err := client.New(client.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout,
		Transport: transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create api client")
	}

	notifier := cart.Notifiers(notify.NewWriter(out), notify.NewLog(lg.Named("notify")))

	manager, err := cart.NewManager(c.Cart(), cart.ManagerConfig{
		Policy:             policy,
		ReconcileOnSuccess: cfg.Cart.Reconcile,
		Notifier:           notifier,
		Logger:             lg,
		MeterProvider:      opts.MeterProvider,
		TracerProvider:     opts.TracerProvider,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create cart manager")
	}

	return &App{
		cfg:      cfg,
		lg:       lg,
		out:      out,
		client:   c,
		catalog:  c.Products(),
		cart:     manager,
		orders:   order.NewService(c.Orders(), manager, order.ServiceConfig{Notifier: notifier, Logger: lg}),
		notifier: notifier,
	}, nil
}

// Run wires the client with telemetry from m and executes the command in args.
// It is the single wiring point for the binary.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, out io.Writer, args []string) error {
	ctx = zctx.Base(ctx, lg)
	lg.Debug("Initializing",
		zap.String("api_url", cfg.APIURL),
		zap.String("cart_policy", cfg.Cart.Policy),
	)

	a, err := New(ctx, lg, cfg, Options{
		Out:            out,
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	})
	if err != nil {
		return err
	}
	return a.Exec(ctx, args)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
