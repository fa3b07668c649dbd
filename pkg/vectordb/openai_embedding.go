package vectordb

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
)

// OpenAIEmbeddingOptions configures the embedding provider endpoint.
type OpenAIEmbeddingOptions struct {
	Endpoint string
	Model    string
}

// OpenAIEmbeddingService calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbeddingService struct {
	client openai.EmbeddingService
	model  string
}

// NewOpenAIEmbeddingService creates an embedding client against the given
// endpoint. Credentials are taken from the environment by the SDK.
func NewOpenAIEmbeddingService(options OpenAIEmbeddingOptions) *OpenAIEmbeddingService {
	var opts []option.RequestOption
	if options.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(options.Endpoint))
	}
	return &OpenAIEmbeddingService{
		client: openai.NewEmbeddingService(opts...),
		model:  options.Model,
	}
}

// Embed returns the embedding of a single input text.
func (s *OpenAIEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := s.client.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		logging.Errorf("Error creating embedding: %v", err)
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("embedding service returned no data")
	}

	emb := res.Data[0].Embedding
	vec := make([]float32, len(emb))
	for i, v := range emb {
		vec[i] = float32(v)
	}
	return vec, nil
}
