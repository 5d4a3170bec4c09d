package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sujalbistaa/v4ult/internal/ws"
)

type recorder struct {
	got chan Event
	err error
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.got <- ev
	return r.err
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recorder{got: make(chan Event, 1)}
	bad := &recorder{got: make(chan Event, 1), err: errors.New("boom")}

	err := Multi{bad, ok}.Notify(context.Background(), Event{Type: PaymentReconciled})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ev := <-ok.got; ev.Type != PaymentReconciled {
		t.Fatalf("second notifier got %+v", ev)
	}
}

func TestAsyncNeverFails(t *testing.T) {
	bad := &recorder{got: make(chan Event, 1), err: errors.New("boom")}
	a := NewAsync(bad, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Notify(ctx, Event{Type: PaymentSubmitted}); err != nil {
		t.Fatalf("async notify returned %v", err)
	}
	cancel()

	select {
	case ev := <-bad.got:
		if ev.Type != PaymentSubmitted {
			t.Fatalf("got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was never delivered")
	}
}

func TestHubNotifier(t *testing.T) {
	h := ws.NewHub()
	n := NewHub(h)

	if err := n.Notify(context.Background(), Event{Type: ConfessionCreated, Data: map[string]any{"shortCode": "STC-AB12"}}); err != nil {
		t.Fatal(err)
	}

	var ev Event
	if err := json.Unmarshal(<-h.Broadcast, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != ConfessionCreated || ev.Data["shortCode"] != "STC-AB12" {
		t.Fatalf("got %+v", ev)
	}

	for i := 0; i < cap(h.Broadcast); i++ {
		h.Publish([]byte("x"))
	}
	if err := n.Notify(context.Background(), Event{Type: ConfessionCreated}); err == nil {
		t.Fatal("expected error when the feed queue is full")
	}
}

func TestFormat(t *testing.T) {
	got := Format(Event{Type: PaymentReconciled, Data: map[string]any{"shortCode": "STC-AB12", "amount": 99}})
	want := "**payment_reconciled** amount=`99` shortCode=`STC-AB12`"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestNewDiscordUnconfigured(t *testing.T) {
	d, err := NewDiscord("", "")
	if err != nil || d != nil {
		t.Fatalf("expected nil notifier, got %v, %v", d, err)
	}
}
