// Package sanitize cleans LLM-generated free text before it is surfaced to
// a human. The pipeline is a fixed, ordered list of named steps; the whole
// pipeline is idempotent and its output never contains a literal angle
// bracket or raw ampersand.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
)

// Result carries the cleaned text plus the names of the steps that changed
// it, in pipeline order, for auditability.
type Result struct {
	CleanText    string
	StepsApplied []string
}

// Step is one named transformation in the pipeline.
type Step struct {
	Name  string
	Apply func(string) string
}

var (
	// residualTagRe removes malformed or unclosed tags the parser missed.
	residualTagRe = regexp.MustCompile(`<[^>]*>?`)

	// codeFenceRe removes Markdown fence lines, keeping fenced content.
	codeFenceRe = regexp.MustCompile("(?m)^\\s*```[a-zA-Z0-9]*[ \\t]*$\\n?")

	// whitespaceRe collapses runs of whitespace to a single space.
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Pipeline applies the sanitization steps in a fixed order.
type Pipeline struct {
	steps     []Step
	maxLength int
}

// NewPipeline builds the standard pipeline with the configured truncation
// length.
func NewPipeline(cfg config.SanitizerConfig) *Pipeline {
	p := &Pipeline{maxLength: cfg.MaxLength}
	p.steps = []Step{
		{Name: "strip_tags", Apply: stripTags},
		{Name: "decode_entities", Apply: html.UnescapeString},
		{Name: "strip_residual_tags", Apply: stripResidualTags},
		{Name: "strip_code_fences", Apply: stripCodeFences},
		{Name: "filter_angle_amp", Apply: filterAngleAmp},
		{Name: "normalize_whitespace", Apply: normalizeWhitespace},
		{Name: "truncate", Apply: p.truncate},
	}
	return p
}

// Sanitize runs the full pipeline and reports which steps changed the text.
func (p *Pipeline) Sanitize(text string) Result {
	res := Result{CleanText: text}
	for _, step := range p.steps {
		cleaned := step.Apply(res.CleanText)
		if cleaned != res.CleanText {
			res.StepsApplied = append(res.StepsApplied, step.Name)
		}
		res.CleanText = cleaned
	}
	return res
}

// Clean is Sanitize without the audit trail.
func (p *Pipeline) Clean(text string) string {
	return p.Sanitize(text).CleanText
}

// stripTags drops markup structure and keeps only text content, using a
// real tokenizer so nested and attribute-laden tags are handled correctly.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt == xhtml.TextToken {
			b.Write(z.Text())
		}
	}
	return b.String()
}

func stripResidualTags(s string) string {
	return residualTagRe.ReplaceAllString(s, "")
}

func stripCodeFences(s string) string {
	return codeFenceRe.ReplaceAllString(s, "")
}

// filterAngleAmp is the character-level fallback: whatever survived the
// earlier passes loses its angle brackets and ampersands here.
func filterAngleAmp(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<', '>', '&':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// truncate bounds the text to maxLength runes, marking the cut with an
// ellipsis that fits inside the budget so re-sanitizing is a no-op.
func (p *Pipeline) truncate(s string) string {
	const marker = "..."
	if p.maxLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= p.maxLength {
		return s
	}
	if p.maxLength <= len(marker) {
		return string(runes[:p.maxLength])
	}
	return string(runes[:p.maxLength-len(marker)]) + marker
}
