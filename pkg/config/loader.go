package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
)

// Load parses the engine configuration from the given YAML file, resolves
// and merges the rule set, applies defaults, and validates everything.
// Any error returned here is fatal for startup.
func Load(configPath string) (*RouterConfig, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts.
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RouterConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if cfg.RulesPath != "" {
		// Relative rule paths are resolved against the config file location.
		rulesPath := cfg.RulesPath
		if !filepath.IsAbs(rulesPath) {
			rulesPath = filepath.Join(filepath.Dir(resolved), rulesPath)
		}
		loaded, err := loadRuleFile(rulesPath)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, loaded...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Infof("Config loaded: rules=%d, cache_enabled=%v, vector_store=%s",
		len(cfg.Rules), cfg.SimilarityCache.Enabled, cfg.VectorStore.Backend)
	return cfg, nil
}

// loadRuleFile reads and parses a rule set YAML file.
func loadRuleFile(path string) ([]RuleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return rf.Rules, nil
}

// Validate checks every threshold and the rule set. Called by Load; exposed
// so tests building configs in code get the same guarantees.
func (c *RouterConfig) Validate() error {
	for _, t := range []struct {
		name  string
		value float64
	}{
		{"engine.short_circuit_threshold", c.Engine.ShortCircuitThreshold},
		{"engine.other_threshold", c.Engine.OtherThreshold},
		{"engine.tie_epsilon", c.Engine.TieEpsilon},
		{"ensemble.llm_weight", c.Ensemble.LLMWeight},
		{"ensemble.disagreement_penalty", c.Ensemble.DisagreementPenalty},
		{"ensemble.fallback_penalty", c.Ensemble.FallbackPenalty},
		{"similarity_cache.similarity_threshold", c.SimilarityCache.SimilarityThreshold},
		{"similarity_cache.accuracy_threshold", c.SimilarityCache.AccuracyThreshold},
	} {
		if t.value < 0 || t.value > 1 {
			return &ConfigurationError{Field: t.name, Reason: "must be in [0, 1]"}
		}
	}

	switch c.VectorStore.Backend {
	case "", "memory":
		// In-memory backend needs no endpoint.
	case "milvus":
		if c.SimilarityCache.Enabled && c.VectorStore.Endpoint == "" {
			return &ConfigurationError{
				Field:  "vector_store.endpoint",
				Reason: "endpoint is required for the milvus backend",
			}
		}
	default:
		return &ConfigurationError{
			Field:  "vector_store.backend",
			Reason: "unknown backend " + c.VectorStore.Backend,
		}
	}

	return validateRules(c.Rules)
}
