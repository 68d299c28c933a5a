package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// State is the lifecycle state of a Manager.
type State int

// Manager lifecycle states.
const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ManagerConfig holds non-dependency configuration for the Manager.
type ManagerConfig struct {
	// Policy selects how local state is treated after a failed remote call.
	Policy Policy
	// ReconcileOnSuccess replaces local state with the snapshot returned by
	// the remote after each successful mutation. When false, local state
	// reflects the order in which mutations were issued.
	ReconcileOnSuccess bool
	// Notifier receives success and error notifications. May be nil.
	Notifier Notifier
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// MeterProvider and TracerProvider default to no-op providers.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Manager owns the local cart snapshot and keeps it consistent with a Remote
// using optimistic updates. It is safe for concurrent use; the internal lock
// is never held across a remote call, so overlapping mutations race at the
// remote service.
type Manager struct {
	remote    Remote
	policy    Policy
	reconcile bool
	notifier  Notifier
	lg        *zap.Logger
	tracer    trace.Tracer
	metrics   *metrics

	inflight atomic.Int64

	mu      sync.RWMutex
	snap    Snapshot
	state   State
	lastErr error
}

// NewManager creates a Manager for remote. Call Initialize before use.
func NewManager(remote Remote, cfg ManagerConfig) (*Manager, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}

	m, err := newMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "cart metrics")
	}

	return &Manager{
		remote:    remote,
		policy:    cfg.Policy,
		reconcile: cfg.ReconcileOnSuccess,
		notifier:  cfg.Notifier,
		lg:        cfg.Logger.Named("cart"),
		tracer:    cfg.TracerProvider.Tracer(instrumentationName),
		metrics:   m,
	}, nil
}

// Initialize loads the current snapshot from the remote. On failure the
// manager becomes ready with an empty snapshot, records a *LoadError and
// returns it.
func (m *Manager) Initialize(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "cart.Initialize")
	defer span.End()

	m.mu.Lock()
	m.state = StateLoading
	m.mu.Unlock()

	snap, err := m.remote.Get(ctx)
	m.metrics.load(ctx, err)

	if err != nil {
		loadErr := &LoadError{Err: err}
		m.mu.Lock()
		m.snap = Snapshot{}
		m.state = StateReady
		m.lastErr = loadErr
		m.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, loadErr.Message())
		m.lg.Warn("Failed to fetch cart", zap.Error(err))
		return loadErr
	}

	snap = normalize(snap)
	m.mu.Lock()
	m.snap = snap
	m.state = StateReady
	m.lastErr = nil
	m.mu.Unlock()

	m.lg.Debug("Cart loaded",
		zap.Int("lines", snap.Len()),
		zap.Int("items", snap.TotalItems()),
	)
	return nil
}

// AddItem increments the line for p by quantity, appending a new line when
// none exists, and issues a remote add.
func (m *Manager) AddItem(ctx context.Context, p product.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	apply := func(s *Snapshot) undoFunc {
		if i := s.index(p.ID); i >= 0 {
			s.Lines[i].Quantity += quantity
		} else {
			s.Lines = append(s.Lines, Line{Product: p, Quantity: quantity})
		}
		return func(s *Snapshot) {
			i := s.index(p.ID)
			if i < 0 {
				return
			}
			if q := s.Lines[i].Quantity - quantity; q > 0 {
				s.Lines[i].Quantity = q
			} else {
				s.Lines = slices.Delete(s.Lines, i, i+1)
			}
		}
	}
	call := func(ctx context.Context) (Snapshot, error) {
		return m.remote.Add(ctx, p.ID, quantity)
	}

	return m.mutate(ctx, OpAdd, p.ID, apply, call, func() Notification {
		return Notification{
			Kind:    KindSuccess,
			Title:   "Added to cart",
			Message: fmt.Sprintf("%s added to your cart", p.Name),
		}
	})
}

// RemoveItem drops the line for productID. The remote delete is issued even
// when no such line exists locally.
func (m *Manager) RemoveItem(ctx context.Context, productID string) error {
	name := productID
	apply := func(s *Snapshot) undoFunc {
		i := s.index(productID)
		if i < 0 {
			return nil
		}
		prev := s.Lines[i]
		name = prev.Product.Name
		s.Lines = slices.Delete(s.Lines, i, i+1)
		return func(s *Snapshot) {
			if s.index(productID) < 0 {
				s.Lines = append(s.Lines, prev)
			}
		}
	}
	call := func(ctx context.Context) (Snapshot, error) {
		return m.remote.Remove(ctx, productID)
	}

	return m.mutate(ctx, OpRemove, productID, apply, call, func() Notification {
		return Notification{
			Kind:    KindSuccess,
			Title:   "Removed from cart",
			Message: fmt.Sprintf("%s removed from your cart", name),
		}
	})
}

// SetQuantity replaces the quantity of the line for productID. Stock is not
// checked; callers clamp with product.ClampQuantity.
func (m *Manager) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	apply := func(s *Snapshot) undoFunc {
		i := s.index(productID)
		if i < 0 {
			return nil
		}
		prev := s.Lines[i].Quantity
		s.Lines[i].Quantity = quantity
		return func(s *Snapshot) {
			if i := s.index(productID); i >= 0 {
				s.Lines[i].Quantity = prev
			}
		}
	}
	call := func(ctx context.Context) (Snapshot, error) {
		return m.remote.Update(ctx, productID, quantity)
	}

	return m.mutate(ctx, OpUpdate, productID, apply, call, func() Notification {
		return Notification{
			Kind:    KindSuccess,
			Title:   "Cart updated",
			Message: fmt.Sprintf("Quantity updated to %d", quantity),
		}
	})
}

// Clear empties the cart locally and issues a remote clear.
func (m *Manager) Clear(ctx context.Context) error {
	apply := func(s *Snapshot) undoFunc {
		prev := s.Lines
		s.Lines = nil
		return func(s *Snapshot) {
			for _, l := range prev {
				if s.index(l.Product.ID) < 0 {
					s.Lines = append(s.Lines, l)
				}
			}
		}
	}
	call := func(ctx context.Context) (Snapshot, error) {
		return Snapshot{}, m.remote.Clear(ctx)
	}

	return m.mutate(ctx, OpClear, "", apply, call, func() Notification {
		return Notification{
			Kind:    KindSuccess,
			Title:   "Cart cleared",
			Message: "All items removed from your cart",
		}
	})
}

// undoFunc reverses a single optimistic mutation. A nil undoFunc means the
// mutation changed nothing locally.
type undoFunc func(s *Snapshot)

// mutate applies an optimistic change, issues the remote call and settles the
// outcome according to the configured policy.
func (m *Manager) mutate(
	ctx context.Context,
	op Op,
	productID string,
	apply func(s *Snapshot) undoFunc,
	call func(ctx context.Context) (Snapshot, error),
	ok func() Notification,
) error {
	ctx, span := m.tracer.Start(ctx, "cart."+string(op), trace.WithAttributes(
		attribute.String("cart.op", string(op)),
		attribute.String("cart.product_id", productID),
	))
	defer span.End()

	m.mu.Lock()
	undo := apply(&m.snap)
	m.mu.Unlock()

	m.inflight.Add(1)
	m.metrics.busy(ctx, op, 1)
	defer func() {
		m.inflight.Add(-1)
		m.metrics.busy(ctx, op, -1)
	}()

	remote, err := call(ctx)
	m.metrics.mutation(ctx, op, err)

	if err != nil {
		mutErr := &MutationError{Op: op, ProductID: productID, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, mutErr.Message())

		m.settleFailure(ctx, undo)

		m.mu.Lock()
		m.lastErr = mutErr
		m.mu.Unlock()

		m.lg.Warn(mutErr.Message(),
			zap.String("op", string(op)),
			zap.String("product_id", productID),
			zap.Stringer("policy", m.policy),
			zap.Error(err),
		)
		Emit(ctx, m.lg, m.notifier, errorNotification(mutErr.Message()))
		return mutErr
	}

	if m.reconcile {
		remote = normalize(remote)
		m.mu.Lock()
		m.snap = remote
		m.mu.Unlock()
	}

	Emit(ctx, m.lg, m.notifier, ok())
	return nil
}

// settleFailure applies the configured policy after a failed remote call.
func (m *Manager) settleFailure(ctx context.Context, undo undoFunc) {
	switch m.policy {
	case PolicyRollback:
		if undo == nil {
			return
		}
		m.mu.Lock()
		undo(&m.snap)
		m.mu.Unlock()
	case PolicyResync:
		snap, err := m.remote.Get(ctx)
		m.metrics.load(ctx, err)
		if err != nil {
			m.lg.Warn("Cart resync failed, keeping local state", zap.Error(err))
			return
		}
		snap = normalize(snap)
		m.mu.Lock()
		m.snap = snap
		m.mu.Unlock()
	}
}

// Snapshot returns a copy of the current cart contents.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone()
}

// TotalItems returns the sum of quantities in the current snapshot.
func (m *Manager) TotalItems() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.TotalItems()
}

// TotalPrice returns the total price of the current snapshot.
func (m *Manager) TotalPrice() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.TotalPrice()
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Busy reports whether any mutation is awaiting a remote response. It is
// advisory: concurrent mutations are not blocked.
func (m *Manager) Busy() bool {
	return m.inflight.Load() > 0
}

// LastError returns the most recently recorded *LoadError or *MutationError,
// or nil.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ErrorMessage returns the human-readable text of LastError, or "".
func (m *Manager) ErrorMessage() string {
	err := m.LastError()
	if err == nil {
		return ""
	}

	var (
		loadErr *LoadError
		mutErr  *MutationError
	)
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Message()
	case errors.As(err, &mutErr):
		return mutErr.Message()
	default:
		return err.Error()
	}
}

// DismissError clears the recorded error.
func (m *Manager) DismissError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

// normalize merges duplicate product lines and drops non-positive
// quantities so remote snapshots keep the one-line-per-product invariant.
func normalize(s Snapshot) Snapshot {
	out := Snapshot{Lines: make([]Line, 0, len(s.Lines))}
	for _, l := range s.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := out.index(l.Product.ID); i >= 0 {
			out.Lines[i].Quantity += l.Quantity
			continue
		}
		out.Lines = append(out.Lines, l)
	}
	return out
}
