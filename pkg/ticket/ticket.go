// Package ticket defines the domain types shared across the classification
// pipeline: incoming tickets, the category and department enumerations, and
// the final routing decision.
package ticket

import "time"

// Metadata carries request-scoped context about the customer who raised the
// ticket. It is informational only; no stage branches on it.
type Metadata struct {
	CustomerID string    `json:"customer_id,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// Ticket is an incoming support ticket. Tickets are immutable once created;
// the engine never mutates a ticket it is handed.
type Ticket struct {
	ID       string    `json:"id"`
	RawText  string    `json:"raw_text"`
	Embedding []float32 `json:"-"`
	Metadata Metadata  `json:"metadata,omitempty"`
}
