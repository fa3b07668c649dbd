package vectordb

import (
	"context"
	"math"
	"sync"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// memEntry is one resolved ticket held by the in-memory store.
type memEntry struct {
	ticketID string
	vector   []float32
	category ticket.Category
	accuracy float64
}

// MemoryStore implements VectorStore with brute-force cosine search.
// Intended for development and tests; data is not persisted.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []memEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert adds a resolved ticket to the store.
func (m *MemoryStore) Insert(ticketID string, vector []float32, category ticket.Category, accuracy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memEntry{
		ticketID: ticketID,
		vector:   vector,
		category: category,
		accuracy: accuracy,
	})
}

// Nearest returns the entry with the highest cosine similarity to the query.
func (m *MemoryStore) Nearest(_ context.Context, embedding []float32) (*NearestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, ErrNoNeighbor
	}

	best := -1
	bestSim := math.Inf(-1)
	for i := range m.entries {
		sim := cosineSimilarity(embedding, m.entries[i].vector)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}
	if best < 0 {
		return nil, ErrNoNeighbor
	}

	e := m.entries[best]
	return &NearestResult{
		Category:           e.category,
		Similarity:         bestSim,
		HistoricalAccuracy: e.accuracy,
	}, nil
}

// RecordOutcome folds a validated outcome into the matching entry's EMA.
func (m *MemoryStore) RecordOutcome(_ context.Context, ticketID string, validated ticket.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ticketID != ticketID {
			continue
		}
		hit := 0.0
		if m.entries[i].category == validated {
			hit = 1.0
		}
		m.entries[i].accuracy = accuracyAlpha*hit + (1-accuracyAlpha)*m.entries[i].accuracy
		return nil
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
