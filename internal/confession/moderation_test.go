package confession

import (
	"errors"
	"testing"
	"time"

	"github.com/sujalbistaa/v4ult/internal/models"
)

var allStatuses = []models.Status{
	models.StatusPending, models.StatusApproved, models.StatusPosted,
	models.StatusRevealed, models.StatusRejected,
}

func TestTransitionAllowList(t *testing.T) {
	want := map[[2]models.Status]bool{
		{models.StatusPending, models.StatusApproved}:  true,
		{models.StatusPending, models.StatusRejected}:  true,
		{models.StatusApproved, models.StatusPosted}:   true,
		{models.StatusApproved, models.StatusRejected}: true,
		{models.StatusPosted, models.StatusRevealed}:   true,
		{models.StatusPosted, models.StatusRejected}:   true,
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			c := &models.Confession{ID: "c1", Status: from}
			ev, err := Transition(c, to, false, "admin", now)

			switch {
			case from == to:
				if err != nil || ev != nil {
					t.Errorf("%s -> %s: expected silent no-op, got %v, %v", from, to, ev, err)
				}
			case want[[2]models.Status{from, to}]:
				if err != nil {
					t.Errorf("%s -> %s: unexpected error %v", from, to, err)
					continue
				}
				if c.Status != to || ev == nil || ev.From != string(from) || ev.To != string(to) || ev.Kind != models.AuditStatus {
					t.Errorf("%s -> %s: bad result %+v, status %s", from, to, ev, c.Status)
				}
			default:
				var ce ConflictError
				if !errors.As(err, &ce) || ce.Code != CodeInvalidTransition {
					t.Errorf("%s -> %s: expected invalid_transition, got %v", from, to, err)
				}
				if c.Status != from {
					t.Errorf("%s -> %s: status changed on refusal", from, to)
				}
			}
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	c := &models.Confession{Status: models.StatusPending}
	_, err := Transition(c, models.Status("archived"), false, "admin", time.Now())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTransitionPostedSetsTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &models.Confession{Status: models.StatusApproved}
	if _, err := Transition(c, models.StatusPosted, false, "admin", now); err != nil {
		t.Fatal(err)
	}
	if c.PostedAt == nil || !c.PostedAt.Equal(now) {
		t.Fatalf("PostedAt = %v", c.PostedAt)
	}
}

func TestFlaggedNeedsOverride(t *testing.T) {
	c := &models.Confession{Status: models.StatusApproved, ToxicityFlagged: true}

	_, err := Transition(c, models.StatusPosted, false, "admin", time.Now())
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Code != CodeReviewRequired {
		t.Fatalf("expected review_required, got %v", err)
	}
	if c.Status != models.StatusApproved {
		t.Fatalf("status changed to %s", c.Status)
	}

	ev, err := Transition(c, models.StatusPosted, true, "admin", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != models.StatusPosted || ev.Note == "" {
		t.Fatalf("override not recorded: %+v", ev)
	}

	// rejection never needs an override
	c = &models.Confession{Status: models.StatusApproved, ToxicityFlagged: true}
	if _, err := Transition(c, models.StatusRejected, false, "admin", time.Now()); err != nil {
		t.Fatal(err)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range allStatuses {
		want := s == models.StatusRevealed || s == models.StatusRejected
		if got := Terminal(s); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestApplyPayment(t *testing.T) {
	tests := []struct {
		name    string
		from    models.PaymentState
		to      models.PaymentState
		wantErr string
		noop    bool
	}{
		{name: "proof submitted", from: models.PaymentUnpaid, to: models.PaymentPending},
		{name: "direct mark paid", from: models.PaymentUnpaid, to: models.PaymentPaid},
		{name: "reconciled", from: models.PaymentPending, to: models.PaymentPaid},
		{name: "refunded", from: models.PaymentPending, to: models.PaymentRefunded},
		{name: "new proof after refund", from: models.PaymentRefunded, to: models.PaymentPending},
		{name: "paid again", from: models.PaymentPaid, to: models.PaymentPaid, noop: true},
		{name: "pending again", from: models.PaymentPending, to: models.PaymentPending, noop: true},
		{name: "leave paid", from: models.PaymentPaid, to: models.PaymentPending, wantErr: CodeAlreadyPaid},
		{name: "refund paid", from: models.PaymentPaid, to: models.PaymentRefunded, wantErr: CodeAlreadyPaid},
		{name: "refund unpaid", from: models.PaymentUnpaid, to: models.PaymentRefunded, wantErr: CodeInvalidPayment},
		{name: "paid after refund", from: models.PaymentRefunded, to: models.PaymentPaid, wantErr: CodeInvalidPayment},
		{name: "back to unpaid", from: models.PaymentPending, to: models.PaymentUnpaid, wantErr: CodeInvalidPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Confession{ID: "c1", Status: models.StatusPosted, PaymentState: tt.from}
			ev, err := ApplyPayment(c, tt.to, "TXN1", "admin", time.Now())

			if tt.wantErr != "" {
				var ce ConflictError
				if !errors.As(err, &ce) || ce.Code != tt.wantErr {
					t.Fatalf("expected %s, got %v", tt.wantErr, err)
				}
				if c.PaymentState != tt.from {
					t.Fatalf("state changed on refusal")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.noop {
				if ev != nil {
					t.Fatalf("expected no audit event, got %+v", ev)
				}
				return
			}
			if c.PaymentState != tt.to || ev.Kind != models.AuditPayment {
				t.Fatalf("got state %s, event %+v", c.PaymentState, ev)
			}
			if c.Status != models.StatusPosted {
				t.Fatalf("payment changed status to %s", c.Status)
			}
			if tt.to == models.PaymentPaid && c.PaymentRef != "TXN1" {
				t.Fatalf("PaymentRef = %q", c.PaymentRef)
			}
		})
	}
}
