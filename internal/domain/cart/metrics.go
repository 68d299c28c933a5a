package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/xenking/kart-storefront/internal/domain/cart"

type metrics struct {
	mutations metric.Int64Counter
	loads     metric.Int64Counter
	inflight  metric.Int64UpDownCounter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(instrumentationName)

	mutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "mutations counter")
	}
	loads, err := meter.Int64Counter("storefront.cart.loads",
		metric.WithDescription("Cart snapshot loads by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loads counter")
	}
	inflight, err := meter.Int64UpDownCounter("storefront.cart.inflight",
		metric.WithDescription("Cart mutations awaiting a remote response"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "inflight counter")
	}

	return &metrics{
		mutations: mutations,
		loads:     loads,
		inflight:  inflight,
	}, nil
}

func outcome(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("outcome", "failure")
	}
	return attribute.String("outcome", "success")
}

func (m *metrics) mutation(ctx context.Context, op Op, err error) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(op)), outcome(err)))
}

func (m *metrics) load(ctx context.Context, err error) {
	m.loads.Add(ctx, 1, metric.WithAttributes(outcome(err)))
}

func (m *metrics) busy(ctx context.Context, op Op, delta int64) {
	m.inflight.Add(ctx, delta, metric.WithAttributes(attribute.String("op", string(op))))
}
