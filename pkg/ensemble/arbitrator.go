// Package ensemble fuses the traditional and LLM predictor outputs into one
// decision. Both predictors are queried concurrently; arbitration happens
// only after both have answered or the LLM's budget has elapsed.
package ensemble

import (
	"context"
	"sync"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/predictor"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// Outcome is the arbitrated result handed to the routing post-processor.
type Outcome struct {
	Category     ticket.Category
	Confidence   float64
	Method       ticket.Method
	RequiresHITL bool
	Reasoning    string
	Sentiment    ticket.Sentiment
}

// Arbitrator runs the two predictors and applies the fusion policy.
type Arbitrator struct {
	traditional predictor.Predictor
	llm         predictor.Predictor

	llmWeight           float64
	disagreementPenalty float64
	fallbackPenalty     float64
	tieEpsilon          float64
	otherThreshold      float64
}

// NewArbitrator wires the two predictors with the configured fusion policy.
func NewArbitrator(traditional, llm predictor.Predictor, ens config.EnsembleConfig, eng config.EngineConfig) *Arbitrator {
	return &Arbitrator{
		traditional:         traditional,
		llm:                 llm,
		llmWeight:           ens.LLMWeight,
		disagreementPenalty: ens.DisagreementPenalty,
		fallbackPenalty:     ens.FallbackPenalty,
		tieEpsilon:          eng.TieEpsilon,
		otherThreshold:      eng.OtherThreshold,
	}
}

// abs without pulling in math for one call.
func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Arbitrate fans out to both predictors concurrently, joins, and fuses.
// The ticket always gets an outcome: total predictor failure degrades to
// OTHER with human review rather than an error.
func (a *Arbitrator) Arbitrate(ctx context.Context, text string) *Outcome {
	var (
		wg      sync.WaitGroup
		mlOut   *predictor.Output
		mlErr   error
		llmOut  *predictor.Output
		llmErr  error
	)

	// Fan-out. The LLM adapter owns its own timeout; cancelling ctx
	// cancels both in-flight calls.
	wg.Add(2)
	go func() {
		defer wg.Done()
		mlOut, mlErr = a.traditional.Predict(ctx, text)
	}()
	go func() {
		defer wg.Done()
		llmOut, llmErr = a.llm.Predict(ctx, text)
	}()
	wg.Wait()

	return a.fuse(mlOut, mlErr, llmOut, llmErr)
}

// fuse applies the arbitration policy to the joined predictor results.
func (a *Arbitrator) fuse(mlOut *predictor.Output, mlErr error, llmOut *predictor.Output, llmErr error) *Outcome {
	// Neither source answered: conservative catch-all.
	if mlErr != nil && llmErr != nil {
		logging.Errorf("Both predictors failed: traditional=%v, llm=%v", mlErr, llmErr)
		return &Outcome{
			Category:     ticket.CategoryOther,
			Confidence:   0,
			Method:       ticket.MethodOther,
			RequiresHITL: true,
		}
	}

	// LLM-only success: unusual (the traditional model is local), but the
	// LLM answer is still a usable single-source decision.
	if mlErr != nil {
		logging.Warnf("Traditional predictor failed, using LLM alone: %v", mlErr)
		return a.applyOtherFloor(&Outcome{
			Category:   llmOut.Category,
			Confidence: llmOut.Confidence * a.fallbackPenalty,
			Method:     ticket.MethodMLFallback,
			Reasoning:  llmOut.Reasoning,
			Sentiment:  llmOut.Sentiment,
		})
	}

	// LLM failed or timed out: traditional-only fallback with the fixed
	// single-source degradation penalty.
	if llmErr != nil {
		logging.Warnf("LLM predictor failed, falling back to traditional: %v", llmErr)
		return a.applyOtherFloor(&Outcome{
			Category:   mlOut.Category,
			Confidence: mlOut.Confidence * a.fallbackPenalty,
			Method:     ticket.MethodMLFallback,
		})
	}

	// Low-margin disagreement: force human review instead of trusting
	// either source on a coin flip.
	if mlOut.Category != llmOut.Category && abs(mlOut.Confidence-llmOut.Confidence) < a.tieEpsilon {
		logging.Infof("Predictors disagree within epsilon (%s@%.3f vs %s@%.3f), forcing OTHER",
			mlOut.Category, mlOut.Confidence, llmOut.Category, llmOut.Confidence)
		return &Outcome{
			Category:     ticket.CategoryOther,
			Confidence:   min(mlOut.Confidence, llmOut.Confidence),
			Method:       ticket.MethodOther,
			RequiresHITL: true,
			Reasoning:    llmOut.Reasoning,
			Sentiment:    llmOut.Sentiment,
		}
	}

	if mlOut.Category == llmOut.Category {
		fused := a.llmWeight*llmOut.Confidence + (1-a.llmWeight)*mlOut.Confidence
		return a.applyOtherFloor(&Outcome{
			Category:   mlOut.Category,
			Confidence: fused,
			Method:     ticket.MethodEnsembleAgree,
			Reasoning:  llmOut.Reasoning,
			Sentiment:  llmOut.Sentiment,
		})
	}

	// Disagreement above epsilon: prefer the LLM's deeper contextual read,
	// with a mild penalty for the split.
	return a.applyOtherFloor(&Outcome{
		Category:   llmOut.Category,
		Confidence: llmOut.Confidence * a.disagreementPenalty,
		Method:     ticket.MethodEnsembleLLMPref,
		Reasoning:  llmOut.Reasoning,
		Sentiment:  llmOut.Sentiment,
	})
}

// applyOtherFloor enforces the OTHER rule last, after fusion, so it applies
// uniformly to every method.
func (a *Arbitrator) applyOtherFloor(o *Outcome) *Outcome {
	o.Confidence = ticket.ClampConfidence(o.Confidence)
	if o.Confidence < a.otherThreshold {
		o.Category = ticket.CategoryOther
		o.RequiresHITL = true
	}
	return o
}
