package sanitize

import (
	"strings"
	"testing"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/config"
)

func testPipeline() *Pipeline {
	return NewPipeline(config.SanitizerConfig{MaxLength: 1000})
}

func TestSanitize_StripsMarkup(t *testing.T) {
	p := testPipeline()

	res := p.Sanitize("<p><strong>Reasoning:</strong> customer is frustrated</p>")
	if res.CleanText != "Reasoning: customer is frustrated" {
		t.Errorf("got %q", res.CleanText)
	}
	if len(res.StepsApplied) == 0 {
		t.Error("expected at least one applied step to be recorded")
	}
}

func TestSanitize_Table(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "the customer asked about a refund",
			want: "the customer asked about a refund",
		},
		{
			name: "entities decoded then filtered",
			in:   "tickets &amp; escalations are open",
			want: "tickets  escalations are open",
		},
		{
			name: "unclosed tag removed",
			in:   "before <broken after",
			want: "before",
		},
		{
			name: "code fences removed, content kept",
			in:   "```json\n{\"a\": 1}\n```",
			want: "{\"a\": 1}",
		},
		{
			name: "nested tags with attributes",
			in:   `<div class="x"><span>keep <b>this</b></span></div>`,
			want: "keep this",
		},
		{
			name: "whitespace collapsed",
			in:   "too   many\n\nspaces\there",
			want: "too many spaces here",
		},
		{
			name: "bare ampersand removed",
			in:   "billing & credit",
			want: "billing  credit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Clean(tt.in)
			// normalize_whitespace collapses interior runs; the table keeps
			// expected values pre-collapse where doubles arise from removal.
			want := strings.Join(strings.Fields(tt.want), " ")
			if got != want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, want)
			}
		})
	}
}

func TestSanitize_NoAngleBracketsOrAmpersand(t *testing.T) {
	p := testPipeline()

	inputs := []string{
		"<script>alert('x')</script>",
		"a < b && b > c",
		"&lt;div&gt; double-encoded &amp;amp;",
		"<<<>>>&&&",
		"<p>normal</p> & <b>bold</b>",
	}
	for _, in := range inputs {
		out := p.Clean(in)
		if strings.ContainsAny(out, "<>&") {
			t.Errorf("Clean(%q) = %q still contains a forbidden character", in, out)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	p := testPipeline()

	inputs := []string{
		"",
		"plain text",
		"<p><strong>Reasoning:</strong> frustrated</p>",
		"tickets &amp; escalations",
		"```\nfenced\n```",
		"a < b and c > d with R500 & more",
		strings.Repeat("long reasoning text ", 100),
		"mixed <em>markup &amp; entities</em> with  \t odd   spacing",
	}

	for _, in := range inputs {
		once := p.Clean(in)
		twice := p.Clean(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestSanitize_Truncation(t *testing.T) {
	p := NewPipeline(config.SanitizerConfig{MaxLength: 20})

	out := p.Clean(strings.Repeat("abcde ", 20))
	if len([]rune(out)) > 20 {
		t.Errorf("output is %d runes, budget is 20", len([]rune(out)))
	}
	if !strings.HasSuffix(out, "...") {
		t.Errorf("truncated output %q missing ellipsis marker", out)
	}

	// Re-sanitizing a truncated string must not cut it again.
	if again := p.Clean(out); again != out {
		t.Errorf("truncation not stable: %q vs %q", out, again)
	}
}

func TestSanitize_TruncationCountsRunes(t *testing.T) {
	p := NewPipeline(config.SanitizerConfig{MaxLength: 10})

	out := p.Clean(strings.Repeat("é", 30))
	if n := len([]rune(out)); n > 10 {
		t.Errorf("output is %d runes, budget is 10", n)
	}
}

func TestSanitize_StepsAppliedOrder(t *testing.T) {
	p := testPipeline()

	res := p.Sanitize("<p>a &amp; b</p>   extra")
	// Steps must be reported in pipeline order and only when they changed
	// the text.
	order := map[string]int{
		"strip_tags":           0,
		"decode_entities":      1,
		"strip_residual_tags":  2,
		"strip_code_fences":    3,
		"filter_angle_amp":     4,
		"normalize_whitespace": 5,
		"truncate":             6,
	}
	last := -1
	for _, name := range res.StepsApplied {
		idx, ok := order[name]
		if !ok {
			t.Fatalf("unknown step %q reported", name)
		}
		if idx <= last {
			t.Fatalf("steps out of order: %v", res.StepsApplied)
		}
		last = idx
	}
	if len(res.StepsApplied) == 0 {
		t.Fatal("expected applied steps")
	}
}
