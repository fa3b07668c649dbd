package vectordb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// Field names of the resolved-tickets collection.
const (
	fieldTicketID  = "ticket_id"
	fieldEmbedding = "embedding"
	fieldCategory  = "category"
	fieldAccuracy  = "accuracy"
)

// accuracyAlpha is the EMA smoothing factor for validated outcomes.
const accuracyAlpha = 0.1

// MilvusStoreOptions configures the Milvus connection.
type MilvusStoreOptions struct {
	Endpoint   string // e.g. "127.0.0.1:19530"
	Collection string
}

// MilvusStore implements VectorStore against a Milvus collection of
// previously resolved tickets.
type MilvusStore struct {
	client     client.Client
	collection string
}

// NewMilvusStore connects to Milvus and loads the collection.
func NewMilvusStore(ctx context.Context, options MilvusStoreOptions) (*MilvusStore, error) {
	cli, err := client.NewGrpcClient(ctx, options.Endpoint)
	if err != nil {
		logging.Errorf("Milvus connect error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := cli.LoadCollection(ctx, options.Collection, false); err != nil {
		logging.Errorf("Milvus load collection error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logging.Infof("Connected to Milvus at %s (collection=%s)", options.Endpoint, options.Collection)
	return &MilvusStore{client: cli, collection: options.Collection}, nil
}

// Nearest returns the single nearest resolved ticket by cosine similarity.
func (m *MilvusStore) Nearest(ctx context.Context, embedding []float32) (*NearestResult, error) {
	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, fmt.Errorf("search param: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.collection,
		nil, // all partitions
		"",  // no filter expression
		[]string{fieldCategory, fieldAccuracy},
		[]entity.Vector{entity.FloatVector(embedding)},
		fieldEmbedding,
		entity.COSINE,
		1,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(results) == 0 || results[0].ResultCount == 0 {
		return nil, ErrNoNeighbor
	}

	hit := results[0]
	catCol, ok := hit.Fields.GetColumn(fieldCategory).(*entity.ColumnVarChar)
	if !ok || catCol.Len() == 0 {
		return nil, fmt.Errorf("unexpected category column in search result")
	}
	accCol, ok := hit.Fields.GetColumn(fieldAccuracy).(*entity.ColumnFloat)
	if !ok || accCol.Len() == 0 {
		return nil, fmt.Errorf("unexpected accuracy column in search result")
	}

	cat, _ := ticket.ParseCategory(catCol.Data()[0])
	return &NearestResult{
		Category:           cat,
		Similarity:         float64(hit.Scores[0]),
		HistoricalAccuracy: float64(accCol.Data()[0]),
	}, nil
}

// RecordOutcome folds a human-validated outcome into the cached entry's
// accuracy EMA. The read-modify-write runs in the store, keyed by ticket id;
// the engine holds no lock across this call.
func (m *MilvusStore) RecordOutcome(ctx context.Context, ticketID string, validated ticket.Category) error {
	expr := fmt.Sprintf("%s == %q", fieldTicketID, ticketID)
	rs, err := m.client.Query(ctx, m.collection, nil, expr,
		[]string{fieldTicketID, fieldCategory, fieldAccuracy})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var (
		idCol  *entity.ColumnVarChar
		catCol *entity.ColumnVarChar
		accCol *entity.ColumnFloat
	)
	for _, col := range rs {
		switch col.Name() {
		case fieldTicketID:
			idCol, _ = col.(*entity.ColumnVarChar)
		case fieldCategory:
			catCol, _ = col.(*entity.ColumnVarChar)
		case fieldAccuracy:
			accCol, _ = col.(*entity.ColumnFloat)
		}
	}
	if idCol == nil || catCol == nil || accCol == nil || idCol.Len() == 0 {
		logging.Warnf("No cached entry for ticket %s, outcome not recorded", ticketID)
		return nil
	}

	cached, _ := ticket.ParseCategory(catCol.Data()[0])
	hit := float32(0)
	if cached == validated {
		hit = 1
	}
	updated := accuracyAlpha*hit + (1-accuracyAlpha)*accCol.Data()[0]

	cols := []entity.Column{
		entity.NewColumnVarChar(fieldTicketID, []string{idCol.Data()[0]}),
		entity.NewColumnVarChar(fieldCategory, []string{catCol.Data()[0]}),
		entity.NewColumnFloat(fieldAccuracy, []float32{updated}),
	}
	if _, err := m.client.Upsert(ctx, m.collection, "", cols...); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logging.Debugf("Recorded outcome for ticket %s: accuracy %.3f -> %.3f",
		ticketID, accCol.Data()[0], updated)
	return nil
}

// Close releases the Milvus client.
func (m *MilvusStore) Close() error {
	return m.client.Close()
}
