// Package predictor wraps the two external classification models behind a
// single interface: the synchronous traditional model and the remote LLM.
// Failures carry an explicit kind so callers branch on type, never on
// message content.
package predictor

import (
	"context"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// Output is one predictor's answer for a ticket.
type Output struct {
	Category   ticket.Category
	Confidence float64

	// Probabilities is the full distribution over the category set.
	// Traditional predictor only.
	Probabilities map[string]float64

	// Reasoning is raw, unsanitized free text. LLM predictor only.
	Reasoning string

	// Sentiment as judged by the LLM; empty for the traditional predictor.
	Sentiment ticket.Sentiment
}

// Predictor is the common contract of both adapters.
type Predictor interface {
	Predict(ctx context.Context, text string) (*Output, error)
}
