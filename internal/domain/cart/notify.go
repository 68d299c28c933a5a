package cart

import (
	"context"

	"go.uber.org/zap"
)

// Kind classifies a notification.
type Kind int

// Notification kinds.
const (
	KindSuccess Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "success"
}

// Notification is an advisory, user-facing signal describing the outcome of a
// cart operation. It is not part of the cart state.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Notifier receives notifications emitted by the Manager.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}

// Notifiers fans a notification out to every non-nil notifier in order.
func Notifiers(notifiers ...Notifier) Notifier {
	out := make(multiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Emit delivers n to notifier, recovering and logging any panic so a broken
// sink never affects cart state. Each sink of a Notifiers fan-out is
// recovered separately.
func Emit(ctx context.Context, lg *zap.Logger, notifier Notifier, n Notification) {
	if multi, ok := notifier.(multiNotifier); ok {
		for _, nt := range multi {
			Emit(ctx, lg, nt, n)
		}
		return
	}
	if notifier == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			lg.Error("notifier panic recovered",
				zap.Any("panic", rec),
				zap.String("title", n.Title),
				zap.Stack("stack"),
			)
		}
	}()
	notifier.Notify(ctx, n)
}

func errorNotification(message string) Notification {
	return Notification{Kind: KindError, Title: "Error", Message: message}
}
