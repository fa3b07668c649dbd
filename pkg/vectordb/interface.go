// Package vectordb defines the narrow interfaces to the external vector
// store and embedding provider, with a Milvus-backed implementation and an
// in-memory implementation for development and tests.
package vectordb

import (
	"context"
	"errors"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// ErrUnavailable marks a vector store outage. The similarity cache degrades
// to a miss on this error instead of failing the ticket.
var ErrUnavailable = errors.New("vector store unavailable")

// ErrNoNeighbor is returned when the store holds no entries to search.
var ErrNoNeighbor = errors.New("no nearest neighbor found")

// NearestResult is the single nearest cached ticket to a query embedding.
type NearestResult struct {
	Category ticket.Category

	// Similarity of the query to the cached embedding, in [0, 1].
	Similarity float64

	// HistoricalAccuracy is the exponential moving average of validated
	// outcomes for the cached entry, maintained by the store.
	HistoricalAccuracy float64
}

// VectorStore is the engine's view of the external nearest-neighbor store.
// The engine never mutates accuracy state in-process; RecordOutcome forwards
// a validated outcome so the store can update its own EMA atomically.
type VectorStore interface {
	Nearest(ctx context.Context, embedding []float32) (*NearestResult, error)
	RecordOutcome(ctx context.Context, ticketID string, validated ticket.Category) error
}

// EmbeddingService produces a fixed-dimensionality embedding for ticket
// text. The engine does not validate vector content.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
