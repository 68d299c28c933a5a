// Package notify provides cart.Notifier sinks.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Log writes notifications to a zap logger: errors at Warn, the rest at Info.
type Log struct {
	lg *zap.Logger
}

var _ cart.Notifier = (*Log)(nil)

// NewLog creates a Log notifier. A nil logger is replaced with a no-op one.
func NewLog(lg *zap.Logger) *Log {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Log{lg: lg}
}

// Notify implements cart.Notifier.
func (l *Log) Notify(_ context.Context, n cart.Notification) {
	fields := []zap.Field{
		zap.Stringer("kind", n.Kind),
		zap.String("message", n.Message),
	}
	if n.Kind == cart.KindError {
		l.lg.Warn(n.Title, fields...)
		return
	}
	l.lg.Info(n.Title, fields...)
}

// Writer prints notifications as single lines, e.g. "✓ Added to cart: Helmet
// added to your cart". Writes are serialized.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

var _ cart.Notifier = (*Writer)(nil)

// NewWriter creates a Writer notifier.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify implements cart.Notifier. Write errors are ignored.
func (w *Writer) Notify(_ context.Context, n cart.Notification) {
	mark := "✓"
	if n.Kind == cart.KindError {
		mark = "✗"
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if n.Message == "" {
		_, _ = fmt.Fprintf(w.w, "%s %s\n", mark, n.Title)
		return
	}
	_, _ = fmt.Fprintf(w.w, "%s %s: %s\n", mark, n.Title, n.Message)
}
