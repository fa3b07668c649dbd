// Package engine wires the pipeline stages together: validation, rules,
// similarity cache, ensemble, routing post-processing and sanitization.
// A well-formed ticket always gets a Decision; failures degrade quality
// (lower confidence, OTHER, human review) instead of aborting.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/cache"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ensemble"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/metrics"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/predictor"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/routing"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/rules"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/sanitize"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/vectordb"
)

// ErrNilTicket is returned when Classify is handed a nil ticket. This is
// the only condition under which Classify returns no Decision.
var ErrNilTicket = errors.New("nil ticket")

// Engine is the stateless decision engine. Construct it once from config
// and share it across requests; it holds no per-request mutable state.
type Engine struct {
	cfg *config.RouterConfig

	evaluator  *rules.Evaluator
	cache      *cache.Router
	embedder   vectordb.EmbeddingService
	store      vectordb.VectorStore
	arbitrator *ensemble.Arbitrator
	post       *routing.PostProcessor
	sanitizer  *sanitize.Pipeline
}

// New builds the engine from config and its external collaborators. The
// store and embedder may be nil when the similarity cache is disabled.
func New(cfg *config.RouterConfig, store vectordb.VectorStore, embedder vectordb.EmbeddingService, traditional, llm predictor.Predictor) (*Engine, error) {
	evaluator, err := rules.NewEvaluator(cfg.Rules)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		evaluator:  evaluator,
		embedder:   embedder,
		store:      store,
		arbitrator: ensemble.NewArbitrator(traditional, llm, cfg.Ensemble, cfg.Engine),
		post:       routing.NewPostProcessor(),
		sanitizer:  sanitize.NewPipeline(cfg.Sanitizer),
	}
	if cfg.SimilarityCache.Enabled && store != nil {
		e.cache = cache.NewRouter(store, cfg.SimilarityCache)
	}
	return e, nil
}

// Classify runs the full pipeline for one ticket. Cancelling ctx cancels
// the in-flight LLM and vector-store calls.
func (e *Engine) Classify(ctx context.Context, t *ticket.Ticket) (*ticket.Decision, error) {
	if t == nil {
		return nil, ErrNilTicket
	}

	start := time.Now()
	defer func() {
		metrics.RecordClassifyLatency(time.Since(start).Seconds())
	}()

	// Empty or whitespace-only text is unclassifiable; predictors are
	// never invoked for it.
	if strings.TrimSpace(t.RawText) == "" {
		logging.Warnf("Ticket %s has no text, routing to triage", t.ID)
		dec := &ticket.Decision{
			Category:     ticket.CategoryOther,
			Confidence:   0,
			Method:       ticket.MethodOther,
			RequiresHITL: true,
		}
		e.finish(dec, t.RawText, "", ticket.SentimentNeutral, "")
		return dec, nil
	}

	// Stage 1: deterministic rules. A sufficiently confident match stops
	// the pipeline before any cache or predictor cost.
	if match := e.evaluator.Evaluate(t.RawText); match != nil {
		if match.Confidence >= e.cfg.Engine.ShortCircuitThreshold {
			metrics.RecordRuleEvaluation("short_circuit")
			dec := &ticket.Decision{
				Category:      match.Category,
				Confidence:    ticket.ClampConfidence(match.Confidence),
				Method:        ticket.MethodRule,
				MatchedRuleID: match.RuleID,
			}
			e.finish(dec, t.RawText, match.Department, ticket.SentimentNeutral, match.Urgency)
			return dec, nil
		}
		metrics.RecordRuleEvaluation("match")
	} else {
		metrics.RecordRuleEvaluation("no_match")
	}

	// Stage 2: similarity cache over resolved tickets.
	if e.cache != nil {
		if dec, ok := e.cache.Route(ctx, e.embeddingFor(ctx, t)); ok {
			e.finish(dec, t.RawText, "", ticket.SentimentNeutral, "")
			return dec, nil
		}
	}

	// Stage 3: concurrent ensemble of the two predictors.
	outcome := e.arbitrator.Arbitrate(ctx, t.RawText)
	dec := &ticket.Decision{
		Category:      outcome.Category,
		Confidence:    ticket.ClampConfidence(outcome.Confidence),
		Method:        outcome.Method,
		RequiresHITL:  outcome.RequiresHITL,
		ReasoningText: outcome.Reasoning,
	}
	sentiment := outcome.Sentiment
	if sentiment == "" {
		sentiment = ticket.SentimentNeutral
	}
	e.finish(dec, t.RawText, "", sentiment, "")
	return dec, nil
}

// finish applies routing post-processing, sanitizes the reasoning text and
// records the decision.
func (e *Engine) finish(dec *ticket.Decision, rawText string, ruleDept ticket.Department, sentiment ticket.Sentiment, ruleUrgency string) {
	e.post.Process(dec, rawText, ruleDept, sentiment, ruleUrgency)
	if dec.ReasoningText != "" {
		dec.ReasoningText = e.sanitizer.Clean(dec.ReasoningText)
	}
	metrics.RecordDecision(string(dec.Method))
	logging.Infof("Decision: category=%s, department=%s, priority=%s, method=%s, confidence=%.3f, hitl=%v",
		dec.Category, dec.Department, dec.Priority, dec.Method, dec.Confidence, dec.RequiresHITL)
}

// embeddingFor returns the ticket's embedding, generating one through the
// external provider when the ticket arrived without it. A provider outage
// yields nil, which the cache router treats as a skip.
func (e *Engine) embeddingFor(ctx context.Context, t *ticket.Ticket) []float32 {
	if len(t.Embedding) > 0 {
		return t.Embedding
	}
	if e.embedder == nil {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, t.RawText)
	if err != nil {
		logging.Warnf("Embedding provider unavailable, skipping cache: %v", err)
		return nil
	}
	return vec
}

// ValidateOutcome forwards a human-validated category to the vector store
// so it can update the cached entry's accuracy. A no-op without a store.
func (e *Engine) ValidateOutcome(ctx context.Context, ticketID string, validated ticket.Category) error {
	if e.store == nil {
		return nil
	}
	return e.store.RecordOutcome(ctx, ticketID, validated)
}
