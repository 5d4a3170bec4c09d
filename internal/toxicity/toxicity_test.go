package toxicity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type errClassifier struct{}

func (errClassifier) Classify(context.Context, string) (Result, error) {
	return Result{Toxic: true, Score: 1}, errors.New("provider down")
}

func perspectiveServer(t *testing.T, status int, scores map[string]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %q", r.URL.RawQuery)
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		for _, a := range requested {
			if _, ok := req.RequestedAttributes[a]; !ok {
				t.Errorf("attribute %s not requested", a)
			}
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		out := map[string]any{}
		for k, v := range scores {
			out[k] = map[string]any{"summaryScore": map[string]any{"value": v}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"attributeScores": out})
	}))
}

func TestPerspectiveClassify(t *testing.T) {
	tests := []struct {
		name      string
		scores    map[string]float64
		wantToxic bool
		wantScore float64
	}{
		{"clean", map[string]float64{AttrToxicity: 0.1, AttrInsult: 0.05}, false, 0.1},
		{"toxic by max attribute", map[string]float64{AttrToxicity: 0.3, AttrThreat: 0.9}, true, 0.3},
		{"at threshold is not toxic", map[string]float64{AttrToxicity: 0.70}, false, 0.70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := perspectiveServer(t, http.StatusOK, tt.scores)
			defer srv.Close()

			p := NewPerspective("test-key", srv.URL, time.Second)
			got, err := p.Classify(context.Background(), "hello")
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got.Toxic != tt.wantToxic {
				t.Errorf("toxic = %v, want %v", got.Toxic, tt.wantToxic)
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if len(got.Attributes) != len(requested) {
				t.Errorf("attributes = %v, want all requested", got.Attributes)
			}
		})
	}
}

func TestPerspectiveNonSuccess(t *testing.T) {
	srv := perspectiveServer(t, http.StatusTooManyRequests, nil)
	defer srv.Close()

	p := NewPerspective("test-key", srv.URL, time.Second)
	if _, err := p.Classify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestNewPerspectiveUnconfigured(t *testing.T) {
	if p := NewPerspective("", "", time.Second); p != nil {
		t.Fatal("expected nil classifier without an api key")
	}
}

func TestFailOpen(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachableURL := unreachable.URL
	unreachable.Close()

	cases := map[string]Classifier{
		"unconfigured": New("", "", time.Second, quietLogger()),
		"erroring":     NewFailOpen(errClassifier{}, quietLogger()),
		"non-success":  New("test-key", down.URL, time.Second, quietLogger()),
		"unreachable":  New("test-key", unreachableURL, time.Second, quietLogger()),
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), "anything at all")
			if err != nil {
				t.Fatalf("fail-open classifier returned error: %v", err)
			}
			if got.Toxic || got.Score != 0 || got.Attributes[AttrToxicity] != 0 {
				t.Fatalf("got %+v, want fallback", got)
			}
		})
	}
}

func TestFailOpenPassesThrough(t *testing.T) {
	srv := perspectiveServer(t, http.StatusOK, map[string]float64{AttrToxicity: 0.95})
	defer srv.Close()

	got, err := New("test-key", srv.URL, time.Second, quietLogger()).Classify(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Toxic || got.Score != 0.95 {
		t.Fatalf("got %+v, want toxic 0.95", got)
	}
}
