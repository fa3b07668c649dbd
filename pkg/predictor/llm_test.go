package predictor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// chatCompletionBody builds a minimal chat completion response whose
// assistant message carries the given content.
func chatCompletionBody(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
	}`, content)
}

func newLLMTestPredictor(t *testing.T, handler http.HandlerFunc) (*LLMPredictor, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewLLMPredictor(config.LLMConfig{
		Endpoint:      srv.URL,
		Model:         "test-model",
		TimeoutMs:     2000,
		MaxRetries:    2,
		BackoffBaseMs: 1,
	})
	return p, srv
}

func TestLLMPredictor_ParsesAnswer(t *testing.T) {
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionBody(
			`{"category": "CREDIT_MGMT", "confidence": 0.95, "reasoning": "dispute language", "sentiment": "negative"}`))
	})

	out, err := p.Predict(context.Background(), "I dispute this charge")
	require.NoError(t, err)
	assert.Equal(t, ticket.CategoryCreditMgmt, out.Category)
	assert.Equal(t, 0.95, out.Confidence)
	assert.Equal(t, "dispute language", out.Reasoning)
	assert.Equal(t, ticket.SentimentNegative, out.Sentiment)
}

func TestLLMPredictor_StripsCodeFence(t *testing.T) {
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionBody(
			"```json\n{\"category\": \"BILLING\", \"confidence\": 0.8, \"reasoning\": \"invoice\", \"sentiment\": \"neutral\"}\n```"))
	})

	out, err := p.Predict(context.Background(), "invoice question")
	require.NoError(t, err)
	assert.Equal(t, ticket.CategoryBilling, out.Category)
}

func TestLLMPredictor_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionBody(
			`{"category": "TECHNICAL", "confidence": 0.85, "reasoning": "outage report", "sentiment": "negative"}`))
	})

	out, err := p.Predict(context.Background(), "the service is down")
	require.NoError(t, err)
	assert.Equal(t, ticket.CategoryTechnical, out.Category)
	assert.Equal(t, int32(2), calls.Load(), "expected exactly one retry")
}

func TestLLMPredictor_AuthFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "invalid api key"}}`, http.StatusUnauthorized)
	})

	_, err := p.Predict(context.Background(), "text")
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindPermanent, pe.Kind)
	assert.Equal(t, int32(1), calls.Load(), "permanent errors must not be retried")
}

func TestLLMPredictor_MalformedAnswerIsPermanent(t *testing.T) {
	var calls atomic.Int32
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionBody("the ticket looks like a billing problem to me"))
	})

	_, err := p.Predict(context.Background(), "text")
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindPermanent, pe.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLLMPredictor_UnknownCategoryIsPermanent(t *testing.T) {
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionBody(
			`{"category": "PIZZA", "confidence": 0.9, "reasoning": "", "sentiment": "neutral"}`))
	})

	_, err := p.Predict(context.Background(), "text")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestLLMPredictor_TimeoutIsTransient(t *testing.T) {
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection
		// read; otherwise it never observes the client closing the
		// connection, the request context is never cancelled, and
		// srv.Close deadlocks in cleanup.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	// Tight budget so the test does not sit on the full default timeout.
	p.timeout = 50 * time.Millisecond

	_, err := p.Predict(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, IsTransient(err), "a timed-out call must classify as transient, got %v", err)
}

func TestLLMPredictor_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	p, _ := newLLMTestPredictor(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		cancel()
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := p.Predict(ctx, "text")
	require.Error(t, err)
	assert.LessOrEqual(t, calls.Load(), int32(2), "cancellation must stop the retry loop")
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}
