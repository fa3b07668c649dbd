// Package cache implements the similarity-cache stage: a nearest-neighbor
// lookup over previously resolved tickets, gated on both similarity and the
// cached label's historical accuracy.
package cache

import (
	"context"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/metrics"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/vectordb"
)

// Router consults the vector store for the nearest resolved ticket and
// accepts it only when both gates pass. A store outage degrades to a miss;
// this stage never fails a ticket.
type Router struct {
	store               vectordb.VectorStore
	similarityThreshold float64
	accuracyThreshold   float64
}

// NewRouter creates a cache router over the given store.
func NewRouter(store vectordb.VectorStore, cfg config.SimilarityCacheConfig) *Router {
	return &Router{
		store:               store,
		similarityThreshold: cfg.SimilarityThreshold,
		accuracyThreshold:   cfg.AccuracyThreshold,
	}
}

// Route returns a cache-sourced decision when the nearest neighbor passes
// the dual gate: similarity AND historical accuracy must both clear their
// thresholds. High similarity with a poorly tracked label falls through,
// and vice versa.
func (r *Router) Route(ctx context.Context, embedding []float32) (*ticket.Decision, bool) {
	if r.store == nil || len(embedding) == 0 {
		metrics.RecordCacheLookup("skipped")
		return nil, false
	}

	nearest, err := r.store.Nearest(ctx, embedding)
	if err != nil {
		// Degraded mode: the pipeline continues without the cache.
		metrics.RecordCacheLookup("degraded")
		logging.Warnf("Similarity cache degraded, falling through: %v", err)
		return nil, false
	}

	if nearest.Similarity < r.similarityThreshold || nearest.HistoricalAccuracy < r.accuracyThreshold {
		metrics.RecordCacheLookup("miss")
		logging.Debugf("Cache miss: similarity=%.3f (>=%.2f required), accuracy=%.3f (>=%.2f required)",
			nearest.Similarity, r.similarityThreshold,
			nearest.HistoricalAccuracy, r.accuracyThreshold)
		return nil, false
	}

	metrics.RecordCacheLookup("hit")
	logging.Infof("Cache hit: category=%s, similarity=%.3f, accuracy=%.3f",
		nearest.Category, nearest.Similarity, nearest.HistoricalAccuracy)

	return &ticket.Decision{
		Category:   nearest.Category,
		Confidence: ticket.ClampConfidence(nearest.Similarity),
		Method:     ticket.MethodCache,
	}, true
}
