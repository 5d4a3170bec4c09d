package db

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/v4ult/internal/confession"
	"github.com/sujalbistaa/v4ult/internal/models"
)

// Store implements confession.Store on gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

var _ confession.Store = (*Store)(nil)

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return confession.NotFoundError{Resource: "confession"}
	}
	return errors.Wrap(err, what)
}

func (s *Store) Create(ctx context.Context, c *models.Confession, events ...models.AnalyticsEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for i := range events {
			if err := tx.Create(&events[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return confession.ErrDuplicateShortCode
		}
		return errors.Wrap(err, "failed to create confession")
	}
	return nil
}

func (s *Store) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Confession{}).Where("short_code = ?", code).Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check short code")
	}
	return n > 0, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Confession, error) {
	var c models.Confession
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "failed to get confession")
	}
	return &c, nil
}

func (s *Store) GetByShortCode(ctx context.Context, code string) (*models.Confession, error) {
	var c models.Confession
	if err := s.db.WithContext(ctx).First(&c, "short_code = ?", code).Error; err != nil {
		return nil, notFound(err, "failed to get confession by short code")
	}
	return &c, nil
}

// RecordView bumps view_count with a single UPDATE so concurrent lookups
// never lose an increment, then reads the row back in the same transaction.
func (s *Store) RecordView(ctx context.Context, code string, at time.Time, event models.AnalyticsEvent) (*models.Confession, error) {
	var c models.Confession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Confession{}).
			Where("short_code = ?", code).
			Updates(map[string]any{
				"view_count":     gorm.Expr("view_count + ?", 1),
				"last_viewed_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.First(&c, "short_code = ?", code).Error; err != nil {
			return err
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, notFound(err, "failed to record view")
	}
	return &c, nil
}

func (s *Store) Mutate(ctx context.Context, id string, fn func(c *models.Confession) (*confession.Mutation, error)) (*models.Confession, error) {
	var out models.Confession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var c models.Confession
		if err := q.First(&c, "id = ?", id).Error; err != nil {
			return notFound(err, "failed to load confession")
		}

		m, err := fn(&c)
		if err != nil {
			return err
		}
		if m == nil {
			out = c
			return nil
		}

		if err := tx.Save(&c).Error; err != nil {
			return errors.Wrap(err, "failed to save confession")
		}
		for i := range m.Events {
			if err := tx.Create(&m.Events[i]).Error; err != nil {
				return errors.Wrap(err, "failed to append audit event")
			}
		}
		if m.Submission != nil {
			if err := tx.Create(m.Submission).Error; err != nil {
				return errors.Wrap(err, "failed to store payment submission")
			}
		}
		if m.ReconcileAll || m.ReconcileRef != "" {
			rq := tx.Model(&models.PaymentSubmission{}).Where("confession_id = ? AND reconciled = ?", id, false)
			if !m.ReconcileAll {
				rq = rq.Where("external_ref = ?", m.ReconcileRef)
			}
			if err := rq.Updates(map[string]any{"reconciled": true, "reconciled_at": s.now()}).Error; err != nil {
				return errors.Wrap(err, "failed to reconcile payment submissions")
			}
		}
		for i := range m.Analytics {
			if err := tx.Create(&m.Analytics[i]).Error; err != nil {
				return errors.Wrap(err, "failed to record analytics event")
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every confession, hottest first.
func (s *Store) List(ctx context.Context) ([]models.Confession, error) {
	var list []models.Confession
	err := s.db.WithContext(ctx).Order("view_count desc").Order("created_at desc").Find(&list).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list confessions")
	}
	return list, nil
}

func (s *Store) ListByAuthor(ctx context.Context, authorRef string) ([]models.Confession, error) {
	var list []models.Confession
	err := s.db.WithContext(ctx).Where("author_ref = ?", authorRef).Order("created_at desc").Find(&list).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list confessions by author")
	}
	return list, nil
}

func (s *Store) ListPaymentSubmissions(ctx context.Context, openOnly bool) ([]models.PaymentSubmission, error) {
	q := s.db.WithContext(ctx).Order("submitted_at asc")
	if openOnly {
		q = q.Where("reconciled = ?", false)
	}
	var subs []models.PaymentSubmission
	if err := q.Find(&subs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list payment submissions")
	}
	return subs, nil
}

func (s *Store) AuditTrail(ctx context.Context, confessionID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := s.db.WithContext(ctx).Where("confession_id = ?", confessionID).Order("id asc").Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load audit trail")
	}
	return events, nil
}

func (s *Store) Stats(ctx context.Context) (confession.Stats, error) {
	var st confession.Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Confession{}).Count(&st.TotalSecrets).Error; err != nil {
		return st, errors.Wrap(err, "failed to count confessions")
	}
	reveals := db.Model(&models.AnalyticsEvent{}).Where("name = ?", models.EventRevealSearch)
	if err := reveals.Count(&st.TotalReveals).Error; err != nil {
		return st, errors.Wrap(err, "failed to count reveals")
	}
	if st.TotalReveals == 0 {
		return st, nil
	}
	var last models.AnalyticsEvent
	err := db.Where("name = ?", models.EventRevealSearch).Order("created_at desc").Order("id desc").Take(&last).Error
	if err != nil {
		return st, errors.Wrap(err, "failed to load last reveal")
	}
	st.LastRevealAt = &last.CreatedAt
	return st, nil
}
