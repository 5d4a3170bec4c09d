package confession

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sujalbistaa/v4ult/internal/identity"
	"github.com/sujalbistaa/v4ult/internal/models"
	"github.com/sujalbistaa/v4ult/internal/namecheck"
	"github.com/sujalbistaa/v4ult/internal/notify"
	"github.com/sujalbistaa/v4ult/internal/shortcode"
	"github.com/sujalbistaa/v4ult/internal/toxicity"
)

const (
	MaxBodyLength       = 1000
	MaxAliasLength      = 50
	MaxDepartmentLength = 100
)

// Categories are the accepted vibes.
var Categories = []string{"coffee_date", "dinner", "just_talk", "study_session", "adventure", "the_one"}

// NormalizeCategory lower-cases c and maps spaces and hyphens to underscores.
// It returns false for anything outside Categories.
func NormalizeCategory(c string) (string, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	c = strings.NewReplacer(" ", "_", "-", "_").Replace(c)
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Prefix string
	Price  Price
	Logger *slog.Logger
	Now    func() time.Time
}

// Service runs the submission, reveal and moderation flows.
type Service struct {
	store    Store
	verifier identity.Verifier
	toxicity toxicity.Classifier
	notifier notify.Notifier
	codes    *shortcode.Generator
	price    Price
	prefix   string
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, verifier identity.Verifier, classifier toxicity.Classifier, notifier notify.Notifier, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prefix == "" {
		opts.Prefix = shortcode.DefaultPrefix
	}
	if opts.Price.Currency == "" {
		opts.Price = Price{Amount: 99, Currency: "INR"}
	}
	if verifier == nil {
		verifier = identity.Deny{}
	}
	if _, ok := classifier.(*toxicity.FailOpen); !ok {
		classifier = toxicity.NewFailOpen(classifier, opts.Logger)
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		store:    store,
		verifier: verifier,
		toxicity: classifier,
		notifier: notifier,
		codes:    shortcode.New(opts.Prefix, store.ShortCodeExists),
		price:    opts.Price,
		prefix:   opts.Prefix,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Price returns the configured reveal fee.
func (s *Service) Price() Price { return s.price }

type SubmitInput struct {
	AuthorRef    string `json:"authorRef"`
	SenderName   string `json:"senderName"`
	TargetName   string `json:"targetName"`
	Body         string `json:"body"`
	Category     string `json:"category"`
	DisplayAlias string `json:"displayAlias"`
	Department   string `json:"department"`
}

// Receipt is all a sender gets back.
type Receipt struct {
	ShortCode    string `json:"shortCode"`
	DisplayAlias string `json:"displayAlias"`
	Category     string `json:"category"`
}

func (in *SubmitInput) trim() {
	in.AuthorRef = strings.TrimSpace(in.AuthorRef)
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.TargetName = strings.TrimSpace(in.TargetName)
	in.Body = strings.TrimSpace(in.Body)
	in.Category = strings.TrimSpace(in.Category)
	in.DisplayAlias = strings.TrimSpace(in.DisplayAlias)
	in.Department = strings.TrimSpace(in.Department)
}

func (in SubmitInput) missing() []string {
	var fields []string
	for _, f := range []struct{ name, value string }{
		{"authorRef", in.AuthorRef},
		{"senderName", in.SenderName},
		{"targetName", in.TargetName},
		{"body", in.Body},
		{"category", in.Category},
		{"displayAlias", in.DisplayAlias},
	} {
		if f.value == "" {
			fields = append(fields, f.name)
		}
	}
	return fields
}

// Submit validates and stores a new confession. Nothing is persisted unless
// every check passes.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Receipt, error) {
	in.trim()
	if fields := in.missing(); len(fields) > 0 {
		return Receipt{}, ValidationError{Code: CodeMissingFields, Reason: "missing required fields", Fields: fields}
	}
	category, ok := NormalizeCategory(in.Category)
	if !ok {
		return Receipt{}, ValidationError{Code: CodeInvalidField, Reason: "unknown category", Fields: []string{"category"}}
	}
	if utf8.RuneCountInString(in.Body) > MaxBodyLength {
		return Receipt{}, ValidationError{Code: CodeInvalidField, Reason: "body is too long", Fields: []string{"body"}}
	}
	if utf8.RuneCountInString(in.DisplayAlias) > MaxAliasLength {
		return Receipt{}, ValidationError{Code: CodeInvalidField, Reason: "display alias is too long", Fields: []string{"displayAlias"}}
	}
	if utf8.RuneCountInString(in.Department) > MaxDepartmentLength {
		return Receipt{}, ValidationError{Code: CodeInvalidField, Reason: "department is too long", Fields: []string{"department"}}
	}

	id, err := s.verify(ctx, in.AuthorRef)
	if err != nil {
		return Receipt{}, err
	}
	sender := in.SenderName
	if id.AuthoritativeName != "" {
		sender = id.AuthoritativeName
	}

	senderScore := namecheck.Score(sender)
	if !senderScore.Valid {
		return Receipt{}, ValidationError{Code: CodeInvalidSenderName, Reason: "sender name " + senderScore.Reason, Fields: []string{"senderName"}}
	}
	if r := namecheck.Score(in.TargetName); !r.Valid {
		return Receipt{}, ValidationError{Code: CodeInvalidTargetName, Reason: "target name " + r.Reason, Fields: []string{"targetName"}}
	}

	tox := s.classify(ctx, in.Body)
	if tox.Toxic {
		return Receipt{}, ValidationError{Code: CodeToxicContent, Reason: "confession contains inappropriate content", Score: tox.Score}
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		if errors.Is(err, shortcode.ErrCodeSpaceExhausted) {
			return Receipt{}, ConflictError{Code: CodeCodeSpace, Reason: "could not allocate a unique short code, try again"}
		}
		return Receipt{}, UpstreamError{Provider: "storage", Err: err}
	}

	now := s.now()
	c := &models.Confession{
		ID:                 uuid.NewString(),
		ShortCode:          code,
		AuthorRef:          in.AuthorRef,
		ClaimedSenderName:  sender,
		ClaimedTargetName:  in.TargetName,
		ProfileRef:         id.ProfileRef,
		Body:               in.Body,
		Category:           category,
		Department:         in.Department,
		DisplayAlias:       in.DisplayAlias,
		ValidationScore:    senderScore.Score,
		ToxicityScore:      tox.Score,
		ToxicityFlagged:    tox.Score > toxicity.Threshold,
		ToxicityAttributes: attributesJSON(tox.Attributes),
		Status:             models.StatusPending,
		PaymentState:       models.PaymentUnpaid,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	created := models.AnalyticsEvent{
		Name:      models.EventConfessionCreated,
		ShortCode: code,
		Metadata:  datatypes.JSONMap{"category": category},
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, c, created); err != nil {
		if errors.Is(err, ErrDuplicateShortCode) {
			return Receipt{}, ConflictError{Code: CodeCodeSpace, Reason: "short code collision, try again"}
		}
		return Receipt{}, UpstreamError{Provider: "storage", Err: err}
	}

	s.notify(ctx, notify.Event{Type: notify.ConfessionCreated, Data: map[string]any{
		"shortCode":       c.ShortCode,
		"category":        c.Category,
		"displayAlias":    c.DisplayAlias,
		"toxicityFlagged": c.ToxicityFlagged,
	}})
	return Receipt{ShortCode: c.ShortCode, DisplayAlias: c.DisplayAlias, Category: c.Category}, nil
}

func (s *Service) verify(ctx context.Context, authorRef string) (identity.Identity, error) {
	id, err := s.verifier.Verify(ctx, authorRef)
	if err != nil {
		return identity.Identity{}, UpstreamError{Provider: "identity", Err: err}
	}
	if !id.Verified {
		return identity.Identity{}, AuthenticationError{Code: CodeUnverifiedAuthor, Reason: "author could not be verified"}
	}
	return id, nil
}

func attributesJSON(attrs map[string]float64) datatypes.JSONMap {
	if len(attrs) == 0 {
		return nil
	}
	m := make(datatypes.JSONMap, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return m
}

// Lookup records a view of code and returns the preview the viewer is
// entitled to. Malformed codes are reported as not found.
func (s *Service) Lookup(ctx context.Context, code string) (Preview, error) {
	code = shortcode.Normalize(code)
	if !shortcode.Valid(s.prefix, code) {
		return Preview{}, NotFoundError{Resource: "confession"}
	}
	now := s.now()
	c, err := s.store.RecordView(ctx, code, now, models.AnalyticsEvent{
		Name:      models.EventRevealSearch,
		ShortCode: code,
		CreatedAt: now,
	})
	if err != nil {
		return Preview{}, s.storeErr(err)
	}
	return PreviewFor(c, c.PaymentState, s.price), nil
}

type PaymentProofInput struct {
	ExternalRef string `json:"paymentRef"`
	Amount      int    `json:"amount"`
	Provider    string `json:"paymentProvider"`
	ViewerEmail string `json:"viewerEmail"`
	Origin      string `json:"-"`
}

// SubmitPayment records a viewer's payment proof for code and moves the
// confession to payment pending until an admin reconciles it.
func (s *Service) SubmitPayment(ctx context.Context, code string, in PaymentProofInput) (*models.PaymentSubmission, error) {
	in.ExternalRef = strings.TrimSpace(in.ExternalRef)
	if in.ExternalRef == "" {
		return nil, ValidationError{Code: CodeMissingPaymentRef, Reason: "payment reference is required", Fields: []string{"paymentRef"}}
	}
	if in.Amount < 0 {
		return nil, ValidationError{Code: CodeInvalidField, Reason: "amount must not be negative", Fields: []string{"amount"}}
	}
	code = shortcode.Normalize(code)
	if !shortcode.Valid(s.prefix, code) {
		return nil, NotFoundError{Resource: "confession"}
	}
	c, err := s.store.GetByShortCode(ctx, code)
	if err != nil {
		return nil, s.storeErr(err)
	}

	now := s.now()
	sub := &models.PaymentSubmission{
		ID:           uuid.NewString(),
		ConfessionID: c.ID,
		ShortCode:    c.ShortCode,
		ExternalRef:  in.ExternalRef,
		Amount:       in.Amount,
		Provider:     strings.TrimSpace(in.Provider),
		ViewerEmail:  strings.TrimSpace(in.ViewerEmail),
		OriginKey:    in.Origin,
		SubmittedAt:  now,
	}
	_, err = s.store.Mutate(ctx, c.ID, func(c *models.Confession) (*Mutation, error) {
		m := &Mutation{
			Submission: sub,
			Analytics: []models.AnalyticsEvent{{
				Name:      models.EventPaymentSubmitted,
				ShortCode: c.ShortCode,
				Metadata:  datatypes.JSONMap{"provider": sub.Provider, "amount": sub.Amount},
				CreatedAt: now,
			}},
		}
		ev, err := ApplyPayment(c, models.PaymentPending, "", "viewer", now)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			m.Events = append(m.Events, *ev)
		}
		return m, nil
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	s.notify(ctx, notify.Event{Type: notify.PaymentSubmitted, Data: map[string]any{
		"shortCode":  sub.ShortCode,
		"paymentRef": sub.ExternalRef,
		"amount":     sub.Amount,
		"provider":   sub.Provider,
	}})
	return sub, nil
}

// MarkPaid reconciles a payment by reference. Marking a paid confession
// again is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id, ref, actor string) (*models.Confession, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ValidationError{Code: CodeMissingPaymentRef, Reason: "payment reference is required", Fields: []string{"paymentRef"}}
	}
	now := s.now()
	changed := false
	c, err := s.store.Mutate(ctx, id, func(c *models.Confession) (*Mutation, error) {
		ev, err := ApplyPayment(c, models.PaymentPaid, ref, actor, now)
		if err != nil || ev == nil {
			return nil, err
		}
		changed = true
		return &Mutation{
			Events:       []models.AuditEvent{*ev},
			ReconcileRef: ref,
			Analytics: []models.AnalyticsEvent{{
				Name:      models.EventPaymentReconciled,
				ShortCode: c.ShortCode,
				Metadata:  datatypes.JSONMap{"paymentRef": ref},
				CreatedAt: now,
			}},
		}, nil
	})
	if err != nil {
		return nil, s.storeErr(err)
	}
	if changed {
		s.notify(ctx, notify.Event{Type: notify.PaymentReconciled, Data: map[string]any{
			"shortCode":  c.ShortCode,
			"paymentRef": ref,
		}})
	}
	return c, nil
}

// Refund rejects a pending payment proof and closes its submissions.
func (s *Service) Refund(ctx context.Context, id, actor string) (*models.Confession, error) {
	now := s.now()
	changed := false
	c, err := s.store.Mutate(ctx, id, func(c *models.Confession) (*Mutation, error) {
		ev, err := ApplyPayment(c, models.PaymentRefunded, "", actor, now)
		if err != nil || ev == nil {
			return nil, err
		}
		changed = true
		return &Mutation{Events: []models.AuditEvent{*ev}, ReconcileAll: true}, nil
	})
	if err != nil {
		return nil, s.storeErr(err)
	}
	if changed {
		s.notify(ctx, notify.Event{Type: notify.PaymentRefunded, Data: map[string]any{"shortCode": c.ShortCode}})
	}
	return c, nil
}

// Transition changes the moderation status of id.
func (s *Service) Transition(ctx context.Context, id string, to models.Status, override bool, actor string) (*models.Confession, error) {
	now := s.now()
	posted := false
	c, err := s.store.Mutate(ctx, id, func(c *models.Confession) (*Mutation, error) {
		ev, err := Transition(c, to, override, actor, now)
		if err != nil || ev == nil {
			return nil, err
		}
		posted = to == models.StatusPosted
		return &Mutation{Events: []models.AuditEvent{*ev}}, nil
	})
	if err != nil {
		return nil, s.storeErr(err)
	}
	if posted {
		s.notify(ctx, notify.Event{Type: notify.ConfessionPosted, Data: map[string]any{
			"shortCode":    c.ShortCode,
			"displayAlias": c.DisplayAlias,
		}})
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]models.Confession, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Confession, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return c, nil
}

func (s *Service) AuditTrail(ctx context.Context, id string) ([]models.AuditEvent, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, s.storeErr(err)
	}
	events, err := s.store.AuditTrail(ctx, id)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return events, nil
}

// PaymentQueue lists submissions that still need an admin decision.
func (s *Service) PaymentQueue(ctx context.Context) ([]models.PaymentSubmission, error) {
	subs, err := s.store.ListPaymentSubmissions(ctx, true)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return subs, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, s.storeErr(err)
	}
	return st, nil
}

// OwnConfession is a sender's view of something they submitted.
type OwnConfession struct {
	ShortCode    string              `json:"shortCode"`
	Category     string              `json:"category"`
	DisplayAlias string              `json:"displayAlias"`
	Status       models.Status       `json:"status"`
	PaymentState models.PaymentState `json:"paymentState"`
	ViewCount    int64               `json:"viewCount"`
	CreatedAt    time.Time           `json:"createdAt"`
	PostedAt     *time.Time          `json:"postedAt,omitempty"`
}

// MyConfessions lists what authorRef submitted, newest first.
func (s *Service) MyConfessions(ctx context.Context, authorRef string) ([]OwnConfession, error) {
	authorRef = strings.TrimSpace(authorRef)
	if authorRef == "" {
		return nil, ValidationError{Code: CodeMissingFields, Reason: "missing required fields", Fields: []string{"authorRef"}}
	}
	if _, err := s.verify(ctx, authorRef); err != nil {
		return nil, err
	}
	list, err := s.store.ListByAuthor(ctx, authorRef)
	if err != nil {
		return nil, s.storeErr(err)
	}
	out := make([]OwnConfession, 0, len(list))
	for _, c := range list {
		out = append(out, OwnConfession{
			ShortCode:    c.ShortCode,
			Category:     c.Category,
			DisplayAlias: c.DisplayAlias,
			Status:       c.Status,
			PaymentState: c.PaymentState,
			ViewCount:    c.ViewCount,
			CreatedAt:    c.CreatedAt,
			PostedAt:     c.PostedAt,
		})
	}
	return out, nil
}

// ClassifyBody runs the toxicity check on its own, for live validation.
func (s *Service) ClassifyBody(ctx context.Context, body string) (toxicity.Result, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return toxicity.Result{}, ValidationError{Code: CodeMissingFields, Reason: "missing required fields", Fields: []string{"body"}}
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return toxicity.Result{}, ValidationError{Code: CodeInvalidField, Reason: "body is too long", Fields: []string{"body"}}
	}
	return s.classify(ctx, body), nil
}

// classify scores body. A classifier failure is logged and treated as clean
// text so a provider outage never blocks submissions.
func (s *Service) classify(ctx context.Context, body string) toxicity.Result {
	res, err := s.toxicity.Classify(ctx, body)
	if err != nil {
		s.logger.WarnContext(ctx, "toxicity check failed, accepting text",
			slog.String("error", err.Error()),
			slog.String("module", "confession"),
		)
		return toxicity.Result{}
	}
	return res
}

// storeErr passes domain errors through and wraps everything else.
func (s *Service) storeErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation), errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrUpstream):
		return err
	}
	return UpstreamError{Provider: "storage", Err: err}
}

func (s *Service) notify(ctx context.Context, ev notify.Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
			slog.String("module", "confession"),
		)
	}
}
