// Package toxicity classifies confession text through an external
// content-moderation provider.
package toxicity

import (
	"context"
	"log/slog"
)

// Threshold is the attribute score above which text counts as toxic.
const Threshold = 0.70

// Attribute names requested from the provider.
const (
	AttrToxicity       = "TOXICITY"
	AttrProfanity      = "PROFANITY"
	AttrIdentityAttack = "IDENTITY_ATTACK"
	AttrInsult         = "INSULT"
	AttrThreat         = "THREAT"
)

// Result is a classification outcome. Score is the general TOXICITY score;
// Toxic is decided by the maximum over all attributes.
type Result struct {
	Toxic      bool               `json:"toxic"`
	Score      float64            `json:"toxicityScore"`
	Attributes map[string]float64 `json:"attributes"`
}

// Classifier scores text for toxicity.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Fallback is the result used whenever the provider cannot answer.
func Fallback() Result {
	return Result{Toxic: false, Score: 0, Attributes: map[string]float64{AttrToxicity: 0}}
}

// FromAttributes builds a Result from raw attribute scores.
func FromAttributes(attrs map[string]float64) Result {
	var top float64
	for _, v := range attrs {
		top = max(top, v)
	}
	return Result{
		Toxic:      top > Threshold,
		Score:      attrs[AttrToxicity],
		Attributes: attrs,
	}
}

// FailOpen answers with Fallback when the wrapped classifier is missing or
// fails, so submissions are never blocked by the provider.
type FailOpen struct {
	Classifier Classifier
	Logger     *slog.Logger
}

// NewFailOpen wraps c. A nil c means classification is disabled.
func NewFailOpen(c Classifier, logger *slog.Logger) *FailOpen {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		logger.Warn("toxicity provider not configured, checks disabled")
	}
	return &FailOpen{Classifier: c, Logger: logger}
}

// Classify never returns an error.
func (f *FailOpen) Classify(ctx context.Context, text string) (Result, error) {
	if f.Classifier == nil {
		return Fallback(), nil
	}
	res, err := f.Classifier.Classify(ctx, text)
	if err != nil {
		f.Logger.WarnContext(ctx, "toxicity check failed, allowing content",
			slog.String("error", err.Error()),
			slog.String("module", "toxicity"),
		)
		return Fallback(), nil
	}
	return res, nil
}
