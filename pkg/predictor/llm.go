package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/metrics"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// classificationPrompt instructs the model to answer with a strict JSON
// object. The category list is appended at construction.
const classificationPrompt = `You are a support-ticket classifier. ` +
	`Classify the ticket into exactly one category and respond with only a JSON object: ` +
	`{"category": "<CATEGORY>", "confidence": <0..1>, "reasoning": "<one sentence>", "sentiment": "positive|neutral|negative"}. ` +
	`Valid categories: %s.`

// codeFenceRe strips a Markdown fence the model may wrap around the JSON.
var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// LLMPredictor calls an OpenAI-compatible chat endpoint with a bounded
// timeout and retries transient failures with exponential backoff.
// Permanent failures (auth, malformed response) surface unretried.
type LLMPredictor struct {
	client      openai.Client
	model       string
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	prompt      string
}

// NewLLMPredictor creates the LLM adapter. Retries are handled here, not by
// the SDK, so the taxonomy decides what is retried.
func NewLLMPredictor(cfg config.LLMConfig) *LLMPredictor {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	names := make([]string, 0, len(ticket.Categories))
	for _, c := range ticket.Categories {
		names = append(names, string(c))
	}

	return &LLMPredictor{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		timeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		maxRetries:  cfg.MaxRetries,
		backoffBase: time.Duration(cfg.BackoffBaseMs) * time.Millisecond,
		prompt:      fmt.Sprintf(classificationPrompt, strings.Join(names, ", ")),
	}
}

// llmAnswer is the JSON object the model is asked to emit.
type llmAnswer struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Sentiment  string  `json:"sentiment"`
}

// Predict classifies the ticket text. The whole call, retries included, is
// bounded by the configured timeout; cancelling ctx cancels the in-flight
// request.
func (p *LLMPredictor) Predict(ctx context.Context, text string) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPredictorLatency("llm", time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.backoffBase * time.Duration(1<<(attempt-1))
			logging.Debugf("LLM retry %d after %v: %v", attempt, backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				metrics.RecordPredictorError("llm", string(KindTransient))
				return nil, &Error{Predictor: "llm", Kind: KindTransient, Err: ctx.Err()}
			}
		}

		out, err := p.predictOnce(ctx, text)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsTransient(err) {
			metrics.RecordPredictorError("llm", string(KindPermanent))
			return nil, err
		}
		metrics.RecordPredictorError("llm", string(KindTransient))

		// A dead context means the deadline is spent; retrying is pointless.
		if ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

// predictOnce performs a single chat completion and parses the answer.
func (p *LLMPredictor) predictOnce(ctx context.Context, text string) (*Output, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.prompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return nil, &Error{Predictor: "llm", Kind: classifyKind(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{
			Predictor: "llm",
			Kind:      KindPermanent,
			Err:       fmt.Errorf("no choices returned"),
		}
	}

	return parseAnswer(resp.Choices[0].Message.Content)
}

// parseAnswer decodes the model's JSON answer. Anything that does not
// decode into a known category is a malformed response, never retried.
func parseAnswer(content string) (*Output, error) {
	trimmed := strings.TrimSpace(content)
	if m := codeFenceRe.FindStringSubmatch(trimmed); m != nil {
		trimmed = m[1]
	}

	var answer llmAnswer
	if err := json.Unmarshal([]byte(trimmed), &answer); err != nil {
		return nil, &Error{
			Predictor: "llm",
			Kind:      KindPermanent,
			Err:       fmt.Errorf("malformed response: %w", err),
		}
	}

	cat, known := ticket.ParseCategory(answer.Category)
	if !known {
		return nil, &Error{
			Predictor: "llm",
			Kind:      KindPermanent,
			Err:       fmt.Errorf("malformed response: unknown category %q", answer.Category),
		}
	}

	sentiment := ticket.Sentiment(strings.ToLower(answer.Sentiment))
	switch sentiment {
	case ticket.SentimentPositive, ticket.SentimentNeutral, ticket.SentimentNegative:
	default:
		sentiment = ""
	}

	return &Output{
		Category:   cat,
		Confidence: ticket.ClampConfidence(answer.Confidence),
		Reasoning:  answer.Reasoning,
		Sentiment:  sentiment,
	}, nil
}
