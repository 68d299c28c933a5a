package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

func TestLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLog(zap.New(core))
	ctx := context.Background()

	n.Notify(ctx, cart.Notification{Kind: cart.KindSuccess, Title: "Added to cart", Message: "Helmet added to your cart"})
	n.Notify(ctx, cart.Notification{Kind: cart.KindError, Title: "Error", Message: "Failed to add item to cart"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Added to cart", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Failed to add item to cart", entries[1].ContextMap()["message"])
	assert.Equal(t, "error", entries[1].ContextMap()["kind"])
}

func TestLog_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLog(nil).Notify(context.Background(), cart.Notification{Title: "x"})
	})
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriter(&buf)
	ctx := context.Background()

	n.Notify(ctx, cart.Notification{Kind: cart.KindSuccess, Title: "Cart cleared", Message: "All items removed from your cart"})
	n.Notify(ctx, cart.Notification{Kind: cart.KindError, Title: "Error"})

	assert.Equal(t, "✓ Cart cleared: All items removed from your cart\n✗ Error\n", buf.String())
}
