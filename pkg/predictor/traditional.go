package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/metrics"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// TraditionalPredictor calls the local model runtime over HTTP. The runtime
// returns a full probability distribution over the category set; the argmax
// probability becomes the confidence.
type TraditionalPredictor struct {
	endpoint   string
	httpClient *http.Client
}

// NewTraditionalPredictor creates the adapter for the given endpoint.
func NewTraditionalPredictor(cfg config.TraditionalConfig) *TraditionalPredictor {
	return &TraditionalPredictor{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
	}
}

// predictProbaRequest is the wire request to the model runtime.
type predictProbaRequest struct {
	Text string `json:"text"`
}

// predictProbaResponse is the wire response from the model runtime.
type predictProbaResponse struct {
	Probabilities map[string]float64 `json:"probabilities"`
}

// Predict returns the model's probability distribution with the argmax
// category as the answer.
func (p *TraditionalPredictor) Predict(ctx context.Context, text string) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPredictorLatency("traditional", time.Since(start).Seconds())
	}()

	body, err := json.Marshal(predictProbaRequest{Text: text})
	if err != nil {
		return nil, &Error{Predictor: "traditional", Kind: KindPermanent, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Predictor: "traditional", Kind: KindPermanent, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		kind := classifyKind(err)
		metrics.RecordPredictorError("traditional", string(kind))
		return nil, &Error{Predictor: "traditional", Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordPredictorError("traditional", string(KindTransient))
		return nil, &Error{Predictor: "traditional", Kind: KindTransient, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := classifyStatus(resp.StatusCode)
		metrics.RecordPredictorError("traditional", string(kind))
		return nil, &Error{
			Predictor: "traditional",
			Kind:      kind,
			Err:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var parsed predictProbaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		metrics.RecordPredictorError("traditional", string(KindPermanent))
		return nil, &Error{Predictor: "traditional", Kind: KindPermanent, Err: err}
	}
	if len(parsed.Probabilities) == 0 {
		metrics.RecordPredictorError("traditional", string(KindPermanent))
		return nil, &Error{
			Predictor: "traditional",
			Kind:      KindPermanent,
			Err:       fmt.Errorf("empty probability distribution"),
		}
	}

	return outputFromDistribution(parsed.Probabilities), nil
}

// outputFromDistribution selects the argmax category. Ties break on the
// lexicographically smaller category name so the result is deterministic.
func outputFromDistribution(probs map[string]float64) *Output {
	var bestName string
	bestProb := -1.0
	for name, prob := range probs {
		if prob > bestProb || (prob == bestProb && name < bestName) {
			bestName = name
			bestProb = prob
		}
	}

	cat, _ := ticket.ParseCategory(bestName)
	return &Output{
		Category:      cat,
		Confidence:    ticket.ClampConfidence(bestProb),
		Probabilities: probs,
	}
}
