package toxicity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultPerspectiveURL is the public comment analyzer endpoint.
const DefaultPerspectiveURL = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"

var requested = []string{AttrToxicity, AttrProfanity, AttrIdentityAttack, AttrInsult, AttrThreat}

// Perspective calls the Perspective comment analyzer API.
type Perspective struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

// NewPerspective returns nil when apiKey is empty, which FailOpen treats as
// "unconfigured".
func NewPerspective(apiKey, endpoint string, timeout time.Duration) *Perspective {
	if apiKey == "" {
		return nil
	}
	if endpoint == "" {
		endpoint = DefaultPerspectiveURL
	}
	return &Perspective{
		APIKey:   apiKey,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	Comment             struct{ Text string `json:"text"` } `json:"comment"`
	RequestedAttributes map[string]struct{}                 `json:"requestedAttributes"`
	Languages           []string                            `json:"languages"`
}

type analyzeResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

func (p *Perspective) Classify(ctx context.Context, text string) (Result, error) {
	var body analyzeRequest
	body.Comment.Text = text
	body.Languages = []string{"en"}
	body.RequestedAttributes = make(map[string]struct{}, len(requested))
	for _, a := range requested {
		body.RequestedAttributes[a] = struct{}{}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, err
	}

	endpoint, err := url.Parse(p.Endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("perspective endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", p.APIKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("perspective request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("perspective: unexpected status %s", resp.Status)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("perspective decode: %w", err)
	}

	attrs := make(map[string]float64, len(requested))
	for _, a := range requested {
		attrs[a] = out.AttributeScores[a].SummaryScore.Value
	}
	return FromAttributes(attrs), nil
}

// New builds the fail-open classifier, backed by Perspective when apiKey is set.
func New(apiKey, endpoint string, timeout time.Duration, logger *slog.Logger) *FailOpen {
	var c Classifier
	if p := NewPerspective(apiKey, endpoint, timeout); p != nil {
		c = p
	}
	return NewFailOpen(c, logger)
}
