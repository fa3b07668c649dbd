// Package rules implements the deterministic first stage of the pipeline:
// an ordered list of pattern rules evaluated with first-match-wins semantics.
// All patterns are compiled at construction; evaluation is pure and cannot
// fail at runtime.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/metrics"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// Match is the result of a successful rule evaluation.
type Match struct {
	RuleID     string
	Category   ticket.Category
	Department ticket.Department
	Urgency    string
	Confidence float64
}

// compiledRule holds one rule with its match spec prepared for evaluation.
type compiledRule struct {
	id         string
	matchType  string
	substring  string           // lowercased, substring match
	keywords   []string         // lowercased, all must be present
	pattern    *regexp.Regexp   // compiled at load
	category   ticket.Category
	department ticket.Department
	urgency    string
	confidence float64
	order      int
}

// Evaluator evaluates rules in ascending order and returns the first match.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	rules []compiledRule
}

// NewEvaluator compiles the rule set. A bad regex or schema problem is a
// ConfigurationError: the engine must not start serving with it.
func NewEvaluator(specs []config.RuleSpec) (*Evaluator, error) {
	compiled := make([]compiledRule, 0, len(specs))
	for _, spec := range specs {
		cr := compiledRule{
			id:         spec.ID,
			matchType:  spec.Match.Type,
			urgency:    strings.ToLower(spec.Urgency),
			confidence: spec.Confidence,
			order:      spec.Order,
		}

		cat, ok := ticket.ParseCategory(spec.Category)
		if !ok {
			return nil, &config.ConfigurationError{
				Field:  "rules." + spec.ID + ".category",
				Reason: "unknown category " + spec.Category,
			}
		}
		cr.category = cat
		cr.department = ticket.Department(strings.ToUpper(spec.Department))

		switch spec.Match.Type {
		case config.MatchSubstring:
			cr.substring = strings.ToLower(spec.Match.Value)
		case config.MatchKeywords:
			cr.keywords = make([]string, len(spec.Match.Keywords))
			for i, kw := range spec.Match.Keywords {
				cr.keywords[i] = strings.ToLower(kw)
			}
		case config.MatchRegex:
			// Case-insensitive to match the substring behavior.
			re, err := regexp.Compile("(?i)" + spec.Match.Value)
			if err != nil {
				return nil, &config.ConfigurationError{
					Field:  "rules." + spec.ID + ".match.value",
					Reason: fmt.Sprintf("invalid regex: %v", err),
				}
			}
			cr.pattern = re
		default:
			return nil, &config.ConfigurationError{
				Field:  "rules." + spec.ID + ".match.type",
				Reason: "unknown match type " + spec.Match.Type,
			}
		}

		compiled = append(compiled, cr)
	}

	// Evaluation priority is ascending order.
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].order < compiled[j].order
	})

	logging.Infof("Rule evaluator ready: %d rules compiled", len(compiled))
	return &Evaluator{rules: compiled}, nil
}

// Evaluate runs the rules against the ticket text and returns the first
// match, or nil when no rule matches. Identical input always yields an
// identical result.
func (e *Evaluator) Evaluate(text string) *Match {
	lowered := strings.ToLower(text)

	for i := range e.rules {
		r := &e.rules[i]
		if !r.matches(lowered, text) {
			continue
		}
		metrics.RecordRuleMatch(r.id)
		logging.Debugf("Rule %s matched (category=%s, confidence=%.2f)",
			r.id, r.category, r.confidence)
		return &Match{
			RuleID:     r.id,
			Category:   r.category,
			Department: r.department,
			Urgency:    r.urgency,
			Confidence: r.confidence,
		}
	}
	return nil
}

// matches checks one rule against the pre-lowered and original text.
func (r *compiledRule) matches(lowered, original string) bool {
	switch r.matchType {
	case config.MatchSubstring:
		return strings.Contains(lowered, r.substring)
	case config.MatchKeywords:
		for _, kw := range r.keywords {
			if !strings.Contains(lowered, kw) {
				return false
			}
		}
		return true
	case config.MatchRegex:
		return r.pattern.MatchString(original)
	}
	return false
}

// Len reports the number of compiled rules.
func (e *Evaluator) Len() int {
	return len(e.rules)
}
