package routing

import (
	"testing"

	"github.com/LinoGoncalves/call-centre-agent-sub001/pkg/ticket"
)

func TestIsDispute(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "vocabulary and amount",
			text: "I dispute this R500 charge on my account, I never authorized it",
			want: true,
		},
		{
			name: "vocabulary without an amount",
			text: "I dispute the way your agent spoke to me",
			want: false,
		},
		{
			name: "amount without dispute vocabulary",
			text: "please refund the R500 charge",
			want: false,
		},
		{
			name: "dollar amount with unauthorised spelling",
			text: "there is an unauthorised $49.99 subscription",
			want: true,
		},
		{
			name: "currency code form",
			text: "never authorized this ZAR 1200 debit",
			want: true,
		},
		{
			name: "plain text",
			text: "how do I update my email address",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDispute(tt.text); got != tt.want {
				t.Errorf("IsDispute(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestProcess_DepartmentTable(t *testing.T) {
	tests := []struct {
		category ticket.Category
		want     ticket.Department
	}{
		{ticket.CategoryAccountSecurity, ticket.DepartmentSecurity},
		{ticket.CategoryBilling, ticket.DepartmentBilling},
		{ticket.CategoryCreditMgmt, ticket.DepartmentCreditMgmt},
		{ticket.CategoryTechnical, ticket.DepartmentTechSupport},
		{ticket.CategorySales, ticket.DepartmentSales},
		{ticket.CategoryGeneral, ticket.DepartmentCustomerCare},
		{ticket.CategoryOther, ticket.DepartmentTriage},
	}

	post := NewPostProcessor()
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			dec := &ticket.Decision{Category: tt.category}
			post.Process(dec, "ordinary ticket text", "", ticket.SentimentNeutral, "")
			if dec.Department != tt.want {
				t.Errorf("department = %s, want %s", dec.Department, tt.want)
			}
		})
	}
}

func TestProcess_DisputeOverridesDepartment(t *testing.T) {
	post := NewPostProcessor()
	dec := &ticket.Decision{Category: ticket.CategoryBilling, Confidence: 0.9}

	post.Process(dec, "I dispute this R500 charge, I never authorized it",
		"", ticket.SentimentNegative, "")

	if dec.Department != ticket.DepartmentCreditMgmt {
		t.Errorf("department = %s, want CREDIT_MGMT", dec.Department)
	}
	if !dec.DisputeDetected {
		t.Error("DisputeDetected must be set")
	}
	if !dec.RequiresHITL {
		t.Error("a dispute must require human review")
	}
}

func TestProcess_DisputeBeatsRuleDepartment(t *testing.T) {
	post := NewPostProcessor()
	dec := &ticket.Decision{Category: ticket.CategoryBilling}

	post.Process(dec, "unauthorized $100 charge", ticket.DepartmentBilling,
		ticket.SentimentNeutral, "")

	if dec.Department != ticket.DepartmentCreditMgmt {
		t.Errorf("dispute override must win over the rule department, got %s", dec.Department)
	}
}

func TestProcess_RuleDepartmentWinsOverTable(t *testing.T) {
	post := NewPostProcessor()
	dec := &ticket.Decision{Category: ticket.CategoryGeneral}

	post.Process(dec, "please cancel my subscription", ticket.DepartmentSales,
		ticket.SentimentNeutral, "")

	if dec.Department != ticket.DepartmentSales {
		t.Errorf("department = %s, want the rule's SALES", dec.Department)
	}
}

func TestDerivePriority(t *testing.T) {
	tests := []struct {
		name        string
		dept        ticket.Department
		sentiment   ticket.Sentiment
		text        string
		ruleUrgency string
		want        ticket.Priority
	}{
		{
			name:      "security base band",
			dept:      ticket.DepartmentSecurity,
			sentiment: ticket.SentimentNeutral,
			text:      "locked out question",
			want:      ticket.PriorityP1,
		},
		{
			name:      "billing base band",
			dept:      ticket.DepartmentBilling,
			sentiment: ticket.SentimentNeutral,
			text:      "invoice copy please",
			want:      ticket.PriorityP2,
		},
		{
			name:      "sales base band",
			dept:      ticket.DepartmentSales,
			sentiment: ticket.SentimentNeutral,
			text:      "thinking about the bigger plan",
			want:      ticket.PriorityP3,
		},
		{
			name:      "urgency escalates one band",
			dept:      ticket.DepartmentTechSupport,
			sentiment: ticket.SentimentNeutral,
			text:      "the portal is down, please fix urgently",
			want:      ticket.PriorityP1,
		},
		{
			name:      "negative sentiment escalates one band",
			dept:      ticket.DepartmentCustomerCare,
			sentiment: ticket.SentimentNegative,
			text:      "this has been a bad experience",
			want:      ticket.PriorityP2,
		},
		{
			name:      "urgency and negative sentiment stack",
			dept:      ticket.DepartmentBilling,
			sentiment: ticket.SentimentNegative,
			text:      "fix this immediately, I am furious",
			want:      ticket.PriorityP0,
		},
		{
			name:      "escalation saturates at P0",
			dept:      ticket.DepartmentSecurity,
			sentiment: ticket.SentimentNegative,
			text:      "emergency, cannot access anything",
			want:      ticket.PriorityP0,
		},
		{
			name:        "rule urgency escalates without text markers",
			dept:        ticket.DepartmentSecurity,
			sentiment:   ticket.SentimentNeutral,
			text:        "plain text",
			ruleUrgency: "high",
			want:        ticket.PriorityP0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := derivePriority(tt.dept, tt.sentiment, tt.text, tt.ruleUrgency)
			if got != tt.want {
				t.Errorf("priority = %s, want %s", got, tt.want)
			}
		})
	}
}
