package models

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the moderation state of a confession.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPosted   Status = "posted"
	StatusRevealed Status = "revealed"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPosted, StatusRevealed, StatusRejected:
		return true
	}
	return false
}

// PaymentState tracks the reveal payment, independent of Status.
type PaymentState string

const (
	PaymentUnpaid   PaymentState = "unpaid"
	PaymentPending  PaymentState = "pending"
	PaymentPaid     PaymentState = "paid"
	PaymentRefunded PaymentState = "refunded"
)

// Confession is an anonymous message tied to a shareable short code.
// The full row is admin-only; viewers only ever see a confession.Preview.
type Confession struct {
	ID                 string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ShortCode          string            `gorm:"not null;uniqueIndex;size:16" json:"shortCode"`
	AuthorRef          string            `gorm:"not null;index" json:"authorRef"`
	ClaimedSenderName  string            `gorm:"not null" json:"claimedSenderName"`
	ClaimedTargetName  string            `gorm:"not null" json:"claimedTargetName"`
	ProfileRef         string            `json:"profileRef,omitempty"`
	Body               string            `gorm:"type:text;not null" json:"body"`
	Category           string            `gorm:"not null" json:"category"`
	Department         string            `json:"department,omitempty"`
	DisplayAlias       string            `gorm:"not null" json:"displayAlias"`
	ValidationScore    int               `gorm:"not null;default:100" json:"validationScore"`
	ToxicityScore      float64           `gorm:"not null;default:0" json:"toxicityScore"`
	ToxicityFlagged    bool              `gorm:"not null;default:false" json:"toxicityFlagged"`
	ToxicityAttributes datatypes.JSONMap `json:"toxicityAttributes,omitempty"`
	Status             Status            `gorm:"not null;default:pending;index" json:"status"`
	PaymentState       PaymentState      `gorm:"not null;default:unpaid" json:"paymentState"`
	PaymentRef         string            `json:"paymentRef,omitempty"`
	ViewCount          int64             `gorm:"not null;default:0" json:"viewCount"`
	LastViewedAt       *time.Time        `json:"lastViewedAt,omitempty"`
	PostedAt           *time.Time        `json:"postedAt,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// PaymentSubmission is a viewer's claimed transaction reference awaiting
// admin reconciliation. Only the Reconciled fields change after creation.
type PaymentSubmission struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConfessionID string     `gorm:"not null;index" json:"confessionId"`
	ShortCode    string     `gorm:"not null" json:"shortCode"`
	ExternalRef  string     `gorm:"not null" json:"externalRef"`
	Amount       int        `gorm:"not null;default:0" json:"amount"`
	Provider     string     `json:"provider,omitempty"`
	ViewerEmail  string     `json:"viewerEmail,omitempty"`
	OriginKey    string     `json:"-"`
	Reconciled   bool       `gorm:"not null;default:false;index" json:"reconciled"`
	ReconciledAt *time.Time `json:"reconciledAt,omitempty"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submittedAt"`
}

// Audit event kinds.
const (
	AuditStatus  = "status"
	AuditPayment = "payment"
)

// AuditEvent records one status or payment transition.
type AuditEvent struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ConfessionID string    `gorm:"not null;index" json:"confessionId"`
	Kind         string    `gorm:"not null" json:"kind"`
	From         string    `gorm:"column:from_state;not null" json:"from"`
	To           string    `gorm:"column:to_state;not null" json:"to"`
	Actor        string    `json:"actor,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Analytics event names.
const (
	EventConfessionCreated = "confession_created"
	EventRevealSearch      = "reveal_search"
	EventPaymentSubmitted  = "payment_submitted"
	EventPaymentReconciled = "payment_reconciled"
)

// AnalyticsEvent is an append-only usage record.
type AnalyticsEvent struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	Name      string            `gorm:"not null;index" json:"name"`
	ShortCode string            `gorm:"index" json:"shortCode,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&Confession{}, &PaymentSubmission{}, &AuditEvent{}, &AnalyticsEvent{}}
}
