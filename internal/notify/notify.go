// Package notify delivers moderation and payment notices to external
// channels. Delivery is best effort and never fails the caller.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Event types.
const (
	ConfessionCreated = "confession_created"
	ConfessionPosted  = "confession_posted"
	PaymentSubmitted  = "payment_submitted"
	PaymentReconciled = "payment_reconciled"
	PaymentRefunded   = "payment_refunded"
)

// Event is the payload pushed to admins. Data must stay free of real names.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async hands events to Next on a new goroutine and returns immediately.
type Async struct {
	Next    Notifier
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewAsync(next Notifier, timeout time.Duration, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{Next: next, Timeout: timeout, Logger: logger}
}

func (a *Async) Notify(ctx context.Context, ev Event) error {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if a.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.Timeout)
			defer cancel()
		}
		if err := a.Next.Notify(ctx, ev); err != nil {
			a.Logger.WarnContext(ctx, "notification failed",
				slog.String("type", ev.Type),
				slog.String("error", err.Error()),
				slog.String("module", "notify"),
			)
		}
	}()
	return nil
}
