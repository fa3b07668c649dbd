package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/apiserver"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/engine"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/predictor"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/vectordb"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to the configuration file")
		apiPort     = flag.Int("api-port", 8080, "Port for the classification API")
		metricsPort = flag.Int("metrics-port", 9190, "Port for Prometheus metrics")
	)
	flag.Parse()

	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}

	// Metrics server on its own port.
	go func() {
		metricsAddr := fmt.Sprintf(":%d", *metricsPort)
		logging.Infof("Starting metrics server on %s", metricsAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logging.Errorf("Metrics server error: %v", err)
		}
	}()

	var store vectordb.VectorStore
	var embedder vectordb.EmbeddingService
	if cfg.SimilarityCache.Enabled {
		switch cfg.VectorStore.Backend {
		case "milvus":
			ms, err := vectordb.NewMilvusStore(context.Background(), vectordb.MilvusStoreOptions{
				Endpoint:   cfg.VectorStore.Endpoint,
				Collection: cfg.VectorStore.Collection,
			})
			if err != nil {
				// The cache degrades; the engine still serves.
				logging.Warnf("Vector store unavailable at startup, cache disabled: %v", err)
			} else {
				store = ms
				defer ms.Close()
			}
		default:
			store = vectordb.NewMemoryStore()
		}
		embedder = vectordb.NewOpenAIEmbeddingService(vectordb.OpenAIEmbeddingOptions{
			Endpoint: cfg.Embedding.Endpoint,
			Model:    cfg.Embedding.Model,
		})
	}

	traditional := predictor.NewTraditionalPredictor(cfg.Traditional)
	llm := predictor.NewLLMPredictor(cfg.LLM)

	eng, err := engine.New(cfg, store, embedder, traditional, llm)
	if err != nil {
		logging.Fatalf("Failed to build decision engine: %v", err)
	}

	logging.Infof("Starting hybrid ticket classification engine with config: %s", *configPath)
	if err := apiserver.NewServer(eng, *apiPort).Start(); err != nil {
		logging.Fatalf("API server error: %v", err)
	}
}
