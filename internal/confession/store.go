package confession

import (
	"context"
	"errors"
	"time"

	"github.com/sujalbistaa/v4ult/internal/models"
)

// ErrDuplicateShortCode is returned by Store.Create when the unique short
// code constraint rejects the insert.
var ErrDuplicateShortCode = errors.New("duplicate short code")

// Mutation describes what a Mutate callback changed besides the row itself.
type Mutation struct {
	Events []models.AuditEvent
	// ReconcileRef marks open submissions with this external ref reconciled.
	ReconcileRef string
	// ReconcileAll marks every open submission of the confession reconciled.
	ReconcileAll bool
	// Submission is inserted in the same transaction when set.
	Submission *models.PaymentSubmission
	Analytics  []models.AnalyticsEvent
}

// Stats is the public ticker.
type Stats struct {
	TotalSecrets int64      `json:"totalSecrets"`
	TotalReveals int64      `json:"totalReveals"`
	LastRevealAt *time.Time `json:"lastRevealAt"`
}

// Store is the persistence port. Implementations return NotFoundError for
// unknown ids and codes.
type Store interface {
	// Create inserts c together with events, all or nothing.
	Create(ctx context.Context, c *models.Confession, events ...models.AnalyticsEvent) error
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	Get(ctx context.Context, id string) (*models.Confession, error)
	GetByShortCode(ctx context.Context, code string) (*models.Confession, error)
	// RecordView atomically increments the view count of code, stamps
	// lastViewedAt, records event and returns the updated row.
	RecordView(ctx context.Context, code string, at time.Time, event models.AnalyticsEvent) (*models.Confession, error)
	// Mutate loads id under a row lock, applies fn and persists the row and
	// the returned Mutation in one transaction. Nothing is written if fn errors
	// or returns nil.
	Mutate(ctx context.Context, id string, fn func(c *models.Confession) (*Mutation, error)) (*models.Confession, error)
	List(ctx context.Context) ([]models.Confession, error)
	ListByAuthor(ctx context.Context, authorRef string) ([]models.Confession, error)
	ListPaymentSubmissions(ctx context.Context, openOnly bool) ([]models.PaymentSubmission, error)
	AuditTrail(ctx context.Context, confessionID string) ([]models.AuditEvent, error)
	Stats(ctx context.Context) (Stats, error)
}
