package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

func newTraditionalTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *TraditionalPredictor) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewTraditionalPredictor(config.TraditionalConfig{
		Endpoint:  srv.URL,
		TimeoutMs: 500,
	})
	return srv, p
}

func TestTraditionalPredictor_ArgmaxDistribution(t *testing.T) {
	_, p := newTraditionalTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req predictProbaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(predictProbaResponse{
			Probabilities: map[string]float64{
				"BILLING":          0.62,
				"TECHNICAL":        0.25,
				"ACCOUNT_SECURITY": 0.13,
			},
		})
	})

	out, err := p.Predict(context.Background(), "question about my invoice")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if out.Category != ticket.CategoryBilling {
		t.Errorf("category = %s, want BILLING", out.Category)
	}
	if out.Confidence != 0.62 {
		t.Errorf("confidence = %v, want 0.62 (argmax probability)", out.Confidence)
	}
	if len(out.Probabilities) != 3 {
		t.Errorf("expected the full distribution, got %d entries", len(out.Probabilities))
	}
}

func TestTraditionalPredictor_ServerErrorIsTransient(t *testing.T) {
	_, p := newTraditionalTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	})

	_, err := p.Predict(context.Background(), "text")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsTransient(err) {
		t.Errorf("expected a transient error for a 503, got %v", err)
	}
}

func TestTraditionalPredictor_MalformedResponseIsPermanent(t *testing.T) {
	_, p := newTraditionalTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := p.Predict(context.Background(), "text")
	if err == nil {
		t.Fatal("expected an error")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindPermanent {
		t.Errorf("expected a permanent error for malformed JSON, got %v", err)
	}
}

func TestOutputFromDistribution_DeterministicTieBreak(t *testing.T) {
	probs := map[string]float64{"BILLING": 0.5, "TECHNICAL": 0.5}
	for i := 0; i < 50; i++ {
		out := outputFromDistribution(probs)
		if out.Category != ticket.CategoryBilling {
			t.Fatalf("tie broke to %s on run %d, want BILLING every time", out.Category, i)
		}
	}
}
