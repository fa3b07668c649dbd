// Package routing maps a classified category onto a department, applies the
// financial-dispute override, and derives the ticket priority. Everything
// here is a deterministic function of the decision, the raw text and the
// reported sentiment.
package routing

import (
	"regexp"
	"strings"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/logging"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/observability/metrics"
	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

// departmentByCategory is the fixed category → department table.
var departmentByCategory = map[ticket.Category]ticket.Department{
	ticket.CategoryAccountSecurity: ticket.DepartmentSecurity,
	ticket.CategoryBilling:         ticket.DepartmentBilling,
	ticket.CategoryCreditMgmt:      ticket.DepartmentCreditMgmt,
	ticket.CategoryTechnical:       ticket.DepartmentTechSupport,
	ticket.CategorySales:           ticket.DepartmentSales,
	ticket.CategoryGeneral:         ticket.DepartmentCustomerCare,
	ticket.CategoryOther:           ticket.DepartmentTriage,
}

// basePriority is the starting priority band per department. Urgency
// markers and negative sentiment each escalate one band.
var basePriority = map[ticket.Department]ticket.Priority{
	ticket.DepartmentSecurity:     ticket.PriorityP1,
	ticket.DepartmentCreditMgmt:   ticket.PriorityP1,
	ticket.DepartmentBilling:      ticket.PriorityP2,
	ticket.DepartmentTechSupport:  ticket.PriorityP2,
	ticket.DepartmentSales:        ticket.PriorityP3,
	ticket.DepartmentCustomerCare: ticket.PriorityP3,
	ticket.DepartmentTriage:       ticket.PriorityP3,
}

var (
	// disputeVocabRe matches financial-dispute language. The override
	// requires this AND a monetary amount in the same text.
	disputeVocabRe = regexp.MustCompile(`(?i)\b(dispute|unauthori[sz]ed|never authori[sz]ed)\b`)

	// amountRe matches a monetary amount: a currency marker followed by
	// digits, with an optional space between them.
	amountRe = regexp.MustCompile(`(?i)(?:R|\$|£|€|USD|ZAR|EUR)\s?\d+(?:[.,]\d+)?`)

	// urgencyRe matches language that escalates the priority one band.
	urgencyRe = regexp.MustCompile(`(?i)\b(urgent|urgently|immediately|asap|emergency|right away|cannot (?:access|log\s?in|work))\b`)
)

// PostProcessor finalizes a decision after classification.
type PostProcessor struct{}

// NewPostProcessor creates the post-processor.
func NewPostProcessor() *PostProcessor {
	return &PostProcessor{}
}

// Process fills in department and priority and applies the dispute
// override. The override is unconditional: whatever category or department
// the classification stages produced, dispute language plus a monetary
// amount reroutes the ticket to credit management with mandatory review.
// ruleDepartment, when non-empty, is the department the matched rule named
// explicitly; it wins over the category table but not over the override.
func (p *PostProcessor) Process(dec *ticket.Decision, rawText string, ruleDepartment ticket.Department, sentiment ticket.Sentiment, ruleUrgency string) {
	dec.Department = departmentByCategory[dec.Category]
	if ruleDepartment != "" {
		dec.Department = ruleDepartment
	}

	if IsDispute(rawText) {
		logging.Infof("Dispute override: rerouting to %s (was %s)",
			ticket.DepartmentCreditMgmt, dec.Department)
		metrics.RecordDisputeOverride()
		dec.Department = ticket.DepartmentCreditMgmt
		dec.DisputeDetected = true
		// Financial disputes always require human sign-off.
		dec.RequiresHITL = true
	}

	dec.Priority = derivePriority(dec.Department, sentiment, rawText, ruleUrgency)
}

// IsDispute reports whether the text carries dispute vocabulary together
// with a monetary amount. Either alone is not enough.
func IsDispute(text string) bool {
	return disputeVocabRe.MatchString(text) && amountRe.MatchString(text)
}

// derivePriority starts from the department's base band and escalates one
// band for urgency markers and one for negative sentiment.
func derivePriority(dept ticket.Department, sentiment ticket.Sentiment, rawText, ruleUrgency string) ticket.Priority {
	prio, ok := basePriority[dept]
	if !ok {
		prio = ticket.PriorityP3
	}

	if urgencyRe.MatchString(rawText) || strings.EqualFold(ruleUrgency, "high") {
		prio = escalate(prio)
	}
	if sentiment == ticket.SentimentNegative {
		prio = escalate(prio)
	}
	return prio
}

// escalate moves one band toward P0.
func escalate(p ticket.Priority) ticket.Priority {
	switch p {
	case ticket.PriorityP3:
		return ticket.PriorityP2
	case ticket.PriorityP2:
		return ticket.PriorityP1
	default:
		return ticket.PriorityP0
	}
}
