package config

import (
	"fmt"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// Match types supported by a rule's match spec.
const (
	MatchSubstring = "substring"
	MatchKeywords  = "keywords"
	MatchRegex     = "regex"
)

// MatchSpec describes how a rule matches ticket text. Exactly one form is
// used depending on Type: Value for substring and regex, Keywords for the
// all-keywords-present form.
type MatchSpec struct {
	Type     string   `yaml:"type"`
	Value    string   `yaml:"value,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// RuleSpec is one deterministic routing rule as declared in YAML. Rules are
// loaded once at startup into an immutable list ordered by Order (ascending).
type RuleSpec struct {
	ID         string    `yaml:"id"`
	Match      MatchSpec `yaml:"match"`
	Category   string    `yaml:"category"`
	Department string    `yaml:"department,omitempty"`
	Urgency    string    `yaml:"urgency,omitempty"`
	Confidence float64   `yaml:"confidence"`
	Order      int       `yaml:"order"`
}

// ruleFile is the on-disk shape of the rule set.
type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// validateRules rejects a malformed rule set before the engine starts
// serving. Regex compilation is checked later by the rules package at
// evaluator construction; schema problems are caught here.
func validateRules(specs []RuleSpec) error {
	seen := make(map[string]bool, len(specs))
	for i, r := range specs {
		if r.ID == "" {
			return &ConfigurationError{
				Field:  ruleField(i, "id"),
				Reason: "rule id is required",
			}
		}
		if seen[r.ID] {
			return &ConfigurationError{
				Field:  ruleField(i, "id"),
				Reason: "duplicate rule id " + r.ID,
			}
		}
		seen[r.ID] = true

		switch r.Match.Type {
		case MatchSubstring, MatchRegex:
			if r.Match.Value == "" {
				return &ConfigurationError{
					Field:  ruleField(i, "match.value"),
					Reason: "match value is required for type " + r.Match.Type,
				}
			}
		case MatchKeywords:
			if len(r.Match.Keywords) == 0 {
				return &ConfigurationError{
					Field:  ruleField(i, "match.keywords"),
					Reason: "at least one keyword is required",
				}
			}
		default:
			return &ConfigurationError{
				Field:  ruleField(i, "match.type"),
				Reason: "unknown match type " + r.Match.Type,
			}
		}

		if _, ok := ticket.ParseCategory(r.Category); !ok {
			return &ConfigurationError{
				Field:  ruleField(i, "category"),
				Reason: "unknown category " + r.Category,
			}
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return &ConfigurationError{
				Field:  ruleField(i, "confidence"),
				Reason: "confidence must be in [0, 1]",
			}
		}
	}
	return nil
}

func ruleField(idx int, name string) string {
	return fmt.Sprintf("rules[%d].%s", idx, name)
}
