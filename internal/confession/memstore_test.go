package confession

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sujalbistaa/v4ult/internal/models"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	mu          sync.Mutex
	rows        map[string]models.Confession
	submissions []models.PaymentSubmission
	audit       []models.AuditEvent
	analytics   []models.AnalyticsEvent
	createErr   error
	taken       map[string]bool
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]models.Confession{}, taken: map[string]bool{}}
}

func (m *memStore) Create(_ context.Context, c *models.Confession, events ...models.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.rows {
		if r.ShortCode == c.ShortCode {
			return ErrDuplicateShortCode
		}
	}
	m.rows[c.ID] = *c
	m.analytics = append(m.analytics, events...)
	return nil
}

func (m *memStore) ShortCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken[code] {
		return true, nil
	}
	for _, r := range m.rows {
		if r.ShortCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, NotFoundError{Resource: "confession"}
	}
	return &r, nil
}

func (m *memStore) byCode(code string) (string, bool) {
	for id, r := range m.rows {
		if r.ShortCode == code {
			return id, true
		}
	}
	return "", false
}

func (m *memStore) GetByShortCode(_ context.Context, code string) (*models.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode(code)
	if !ok {
		return nil, NotFoundError{Resource: "confession"}
	}
	r := m.rows[id]
	return &r, nil
}

func (m *memStore) RecordView(_ context.Context, code string, at time.Time, event models.AnalyticsEvent) (*models.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode(code)
	if !ok {
		return nil, NotFoundError{Resource: "confession"}
	}
	r := m.rows[id]
	r.ViewCount++
	r.LastViewedAt = &at
	m.rows[id] = r
	m.analytics = append(m.analytics, event)
	return &r, nil
}

func (m *memStore) Mutate(_ context.Context, id string, fn func(c *models.Confession) (*Mutation, error)) (*models.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, NotFoundError{Resource: "confession"}
	}
	mut, err := fn(&r)
	if err != nil {
		return nil, err
	}
	if mut == nil {
		orig := m.rows[id]
		return &orig, nil
	}
	m.rows[id] = r
	m.audit = append(m.audit, mut.Events...)
	m.analytics = append(m.analytics, mut.Analytics...)
	if mut.Submission != nil {
		m.submissions = append(m.submissions, *mut.Submission)
	}
	for i := range m.submissions {
		s := &m.submissions[i]
		if s.ConfessionID != id || s.Reconciled {
			continue
		}
		if mut.ReconcileAll || (mut.ReconcileRef != "" && s.ExternalRef == mut.ReconcileRef) {
			s.Reconciled = true
			now := time.Now()
			s.ReconciledAt = &now
		}
	}
	return &r, nil
}

func (m *memStore) List(context.Context) ([]models.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Confession, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	return out, nil
}

func (m *memStore) ListByAuthor(_ context.Context, authorRef string) ([]models.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Confession
	for _, r := range m.rows {
		if r.AuthorRef == authorRef {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListPaymentSubmissions(_ context.Context, openOnly bool) ([]models.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PaymentSubmission
	for _, s := range m.submissions {
		if openOnly && s.Reconciled {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) AuditTrail(_ context.Context, id string) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEvent
	for _, e := range m.audit {
		if e.ConfessionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) Stats(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{TotalSecrets: int64(len(m.rows))}
	for _, e := range m.analytics {
		if e.Name == models.EventRevealSearch {
			st.TotalReveals++
			t := e.CreatedAt
			st.LastRevealAt = &t
		}
	}
	return st, nil
}
