// Package config loads and validates the engine configuration and the rule
// set. All validation happens at load time; a malformed configuration is a
// ConfigurationError and prevents the engine from starting. Nothing in this
// package fails at evaluation time.
package config

import "fmt"

// ConfigurationError marks a configuration problem detected at load. It is
// fatal: callers must not start serving with a partially valid config.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// EngineConfig holds the pipeline thresholds. All values are business-doc
// defaults, not data-derived constants, so they stay configurable.
type EngineConfig struct {
	// ShortCircuitThreshold is the minimum rule confidence that stops the
	// pipeline without consulting cache or predictors.
	ShortCircuitThreshold float64 `yaml:"short_circuit_threshold"`

	// OtherThreshold is the confidence floor below which any fused decision
	// is overridden to OTHER and flagged for human review.
	OtherThreshold float64 `yaml:"other_threshold"`

	// TieEpsilon is the confidence margin under which a predictor
	// disagreement is considered too close to call.
	TieEpsilon float64 `yaml:"tie_epsilon"`
}

// EnsembleConfig controls how traditional and LLM outputs are fused.
type EnsembleConfig struct {
	// LLMWeight is the weight of the LLM confidence when both predictors
	// agree; the traditional predictor receives 1 - LLMWeight.
	LLMWeight float64 `yaml:"llm_weight"`

	// DisagreementPenalty scales the LLM confidence when the predictors
	// disagree and the LLM category is preferred.
	DisagreementPenalty float64 `yaml:"disagreement_penalty"`

	// FallbackPenalty scales the traditional confidence when the LLM call
	// failed and the decision rests on a single source.
	FallbackPenalty float64 `yaml:"fallback_penalty"`
}

// SimilarityCacheConfig controls the cached-ticket router.
type SimilarityCacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// SimilarityThreshold is the minimum nearest-neighbor similarity for a
	// cache hit. Both gates must pass; high similarity alone is not enough.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// AccuracyThreshold is the minimum historical accuracy of the cached
	// category for a cache hit.
	AccuracyThreshold float64 `yaml:"accuracy_threshold"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Backend is "milvus" or "memory".
	Backend    string `yaml:"backend"`
	Endpoint   string `yaml:"endpoint"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig configures the external embedding provider, used only for
// tickets that arrive without a precomputed embedding.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// LLMConfig configures the LLM predictor adapter.
type LLMConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	MaxRetries    int    `yaml:"max_retries"`
	BackoffBaseMs int    `yaml:"backoff_base_ms"`
}

// TraditionalConfig configures the local ML model endpoint.
type TraditionalConfig struct {
	Endpoint  string `yaml:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// SanitizerConfig controls the display-text sanitization pipeline.
type SanitizerConfig struct {
	MaxLength int `yaml:"max_length"`
}

// RouterConfig is the root configuration for the decision engine.
type RouterConfig struct {
	Engine          EngineConfig          `yaml:"engine"`
	Ensemble        EnsembleConfig        `yaml:"ensemble"`
	SimilarityCache SimilarityCacheConfig `yaml:"similarity_cache"`
	VectorStore     VectorStoreConfig     `yaml:"vector_store"`
	Embedding       EmbeddingConfig       `yaml:"embedding"`
	LLM             LLMConfig             `yaml:"llm"`
	Traditional     TraditionalConfig     `yaml:"traditional"`
	Sanitizer       SanitizerConfig       `yaml:"sanitizer"`

	// RulesPath points at the rule set YAML. Rules may also be supplied
	// inline through the Rules field (tests do this).
	RulesPath string     `yaml:"rules_path"`
	Rules     []RuleSpec `yaml:"rules,omitempty"`
}

// applyDefaults fills unset fields with the documented defaults.
func (c *RouterConfig) applyDefaults() {
	if c.Engine.ShortCircuitThreshold == 0 {
		c.Engine.ShortCircuitThreshold = 0.85
	}
	if c.Engine.OtherThreshold == 0 {
		c.Engine.OtherThreshold = 0.6
	}
	if c.Engine.TieEpsilon == 0 {
		c.Engine.TieEpsilon = 0.02
	}
	if c.Ensemble.LLMWeight == 0 {
		c.Ensemble.LLMWeight = 0.7
	}
	if c.Ensemble.DisagreementPenalty == 0 {
		c.Ensemble.DisagreementPenalty = 0.9
	}
	if c.Ensemble.FallbackPenalty == 0 {
		c.Ensemble.FallbackPenalty = 0.8
	}
	if c.SimilarityCache.SimilarityThreshold == 0 {
		c.SimilarityCache.SimilarityThreshold = 0.92
	}
	if c.SimilarityCache.AccuracyThreshold == 0 {
		c.SimilarityCache.AccuracyThreshold = 0.85
	}
	if c.LLM.TimeoutMs == 0 {
		c.LLM.TimeoutMs = 3000
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 2
	}
	if c.LLM.BackoffBaseMs == 0 {
		c.LLM.BackoffBaseMs = 250
	}
	if c.Traditional.TimeoutMs == 0 {
		c.Traditional.TimeoutMs = 500
	}
	if c.Sanitizer.MaxLength == 0 {
		c.Sanitizer.MaxLength = 1000
	}
}
