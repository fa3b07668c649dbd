package ticket

import "strings"

// Category is a member of the fixed classification taxonomy. OTHER is the
// catch-all used when no source reaches sufficient confidence.
type Category string

const (
	CategoryAccountSecurity Category = "ACCOUNT_SECURITY"
	CategoryBilling         Category = "BILLING"
	CategoryCreditMgmt      Category = "CREDIT_MGMT"
	CategoryTechnical       Category = "TECHNICAL"
	CategorySales           Category = "SALES"
	CategoryGeneral         Category = "GENERAL"
	CategoryOther           Category = "OTHER"
)

// Categories lists the fixed category set, excluding OTHER.
var Categories = []Category{
	CategoryAccountSecurity,
	CategoryBilling,
	CategoryCreditMgmt,
	CategoryTechnical,
	CategorySales,
	CategoryGeneral,
}

// ParseCategory normalizes a raw string to a known category. The second
// return value reports whether the input named a member of the fixed set
// (OTHER included).
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if c == CategoryOther {
		return c, true
	}
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return CategoryOther, false
}

// Department identifies the team a ticket is routed to.
type Department string

const (
	DepartmentSecurity     Department = "SECURITY"
	DepartmentBilling      Department = "BILLING"
	DepartmentCreditMgmt   Department = "CREDIT_MGMT"
	DepartmentTechSupport  Department = "TECH_SUPPORT"
	DepartmentSales        Department = "SALES"
	DepartmentCustomerCare Department = "CUSTOMER_CARE"
	DepartmentTriage       Department = "TRIAGE"
)

// Priority is the urgency band assigned to a routed ticket. P0 is the most
// urgent.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Method identifies which pipeline stage produced the final decision.
type Method string

const (
	MethodRule             Method = "rule"
	MethodCache            Method = "cache"
	MethodEnsembleAgree    Method = "ensemble_agree"
	MethodEnsembleLLMPref  Method = "ensemble_llm_preferred"
	MethodMLFallback       Method = "ml_fallback"
	MethodOther            Method = "other"
)

// Sentiment as reported by the LLM predictor. Defaults to neutral when the
// ensemble stage did not run or the LLM reported nothing usable.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Decision is the engine's final answer for one ticket. It is produced once,
// is immutable, and is owned by the caller after return.
type Decision struct {
	Category        Category   `json:"category"`
	Department      Department `json:"department"`
	Priority        Priority   `json:"priority"`
	Confidence      float64    `json:"confidence"`
	Method          Method     `json:"method"`
	DisputeDetected bool       `json:"dispute_detected"`
	RequiresHITL    bool       `json:"requires_hitl"`
	ReasoningText   string     `json:"reasoning_text,omitempty"`
	MatchedRuleID   string     `json:"matched_rule_id,omitempty"`
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
