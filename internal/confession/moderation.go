package confession

import (
	"fmt"
	"time"

	"github.com/sujalbistaa/v4ult/internal/models"
)

// allowed is the complete set of status changes; anything else is refused.
var allowed = map[models.Status][]models.Status{
	models.StatusPending:  {models.StatusApproved, models.StatusRejected},
	models.StatusApproved: {models.StatusPosted, models.StatusRejected},
	models.StatusPosted:   {models.StatusRevealed, models.StatusRejected},
}

// CanTransition reports whether from → to is on the allow-list.
// Self transitions are not listed; Transition treats them as no-ops.
func CanTransition(from, to models.Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no status change can leave s.
func Terminal(s models.Status) bool {
	return len(allowed[s]) == 0
}

// Transition moves c to status to. It returns the audit event to record, or
// nil for a no-op self transition. override is required to post a confession
// flagged for toxicity.
func Transition(c *models.Confession, to models.Status, override bool, actor string, now time.Time) (*models.AuditEvent, error) {
	if !to.Valid() {
		return nil, ConflictError{Code: CodeInvalidTransition, Reason: fmt.Sprintf("unknown status %q", to)}
	}
	if c.Status == to {
		return nil, nil
	}
	if !CanTransition(c.Status, to) {
		return nil, ConflictError{
			Code:   CodeInvalidTransition,
			Reason: fmt.Sprintf("cannot move confession from %s to %s", c.Status, to),
		}
	}
	if to == models.StatusPosted && c.ToxicityFlagged && !override {
		return nil, ConflictError{
			Code:   CodeReviewRequired,
			Reason: "confession is flagged for toxicity and needs an explicit override to be posted",
		}
	}

	from := c.Status
	c.Status = to
	if to == models.StatusPosted {
		t := now
		c.PostedAt = &t
	}

	ev := &models.AuditEvent{
		ConfessionID: c.ID,
		Kind:         models.AuditStatus,
		From:         string(from),
		To:           string(to),
		Actor:        actor,
		CreatedAt:    now,
	}
	if override && to == models.StatusPosted && c.ToxicityFlagged {
		ev.Note = "toxicity override"
	}
	return ev, nil
}

var paymentAllowed = map[models.PaymentState][]models.PaymentState{
	models.PaymentUnpaid:   {models.PaymentPending, models.PaymentPaid},
	models.PaymentPending:  {models.PaymentPaid, models.PaymentRefunded},
	models.PaymentRefunded: {models.PaymentPending},
}

// ApplyPayment moves c's payment state. Nothing leaves paid; paid → paid is
// a no-op. ref is recorded when the state becomes paid.
func ApplyPayment(c *models.Confession, to models.PaymentState, ref, actor string, now time.Time) (*models.AuditEvent, error) {
	if c.PaymentState == to {
		return nil, nil
	}
	if c.PaymentState == models.PaymentPaid {
		return nil, ConflictError{Code: CodeAlreadyPaid, Reason: "confession is already paid"}
	}

	ok := false
	for _, s := range paymentAllowed[c.PaymentState] {
		if s == to {
			ok = true
			break
		}
	}
	if !ok {
		return nil, ConflictError{
			Code:   CodeInvalidPayment,
			Reason: fmt.Sprintf("cannot move payment from %s to %s", c.PaymentState, to),
		}
	}

	from := c.PaymentState
	c.PaymentState = to
	if to == models.PaymentPaid {
		c.PaymentRef = ref
	}

	return &models.AuditEvent{
		ConfessionID: c.ID,
		Kind:         models.AuditPayment,
		From:         string(from),
		To:           string(to),
		Actor:        actor,
		Note:         ref,
		CreatedAt:    now,
	}, nil
}
