package categorize

import (
	"testing"

	"github.com/dvloznov/budgetwise/internal/parse"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name           string
		tx             parse.Transaction
		wantCategory   string
		wantConfidence float64
	}{
		{
			name:           "income direction wins",
			tx:             parse.Transaction{Description: "PAYROLL ACME CORP", IsIncome: true},
			wantCategory:   "Income",
			wantConfidence: 0.8,
		},
		{
			name:           "housing keyword",
			tx:             parse.Transaction{Description: "MONTHLY RENT PAYMENT"},
			wantCategory:   "Housing",
			wantConfidence: 0.9,
		},
		{
			name:           "grocery lands in food not shopping",
			tx:             parse.Transaction{Description: "GROCERY STORE #42"},
			wantCategory:   "Food & Dining",
			wantConfidence: 0.85,
		},
		{
			name:           "shopping keyword",
			tx:             parse.Transaction{Description: "AMAZON MARKETPLACE"},
			wantCategory:   "Shopping",
			wantConfidence: 0.7,
		},
		{
			name:           "rideshare",
			tx:             parse.Transaction{Description: "UBER TRIP 8823"},
			wantCategory:   "Transportation",
			wantConfidence: 0.85,
		},
		{
			name:           "streaming subscription",
			tx:             parse.Transaction{Description: "NETFLIX.COM"},
			wantCategory:   "Subscriptions",
			wantConfidence: 0.85,
		},
		{
			name:           "no keyword match",
			tx:             parse.Transaction{Description: "XQZ 9 INTL"},
			wantCategory:   "Other",
			wantConfidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.tx)
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Description != tt.tx.Description {
				t.Errorf("Transaction not carried through: %+v", got)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"category":"Housing"}`, `{"category":"Housing"}`},
		{"fenced", "```json\n{\"category\":\"Housing\"}\n```", `{"category":"Housing"}`},
		{"fenced no language", "```\n{\"category\":\"Housing\"}\n```", `{"category":"Housing"}`},
		{"leading prose", "Here is the result: {\"category\":\"Housing\"}", `{"category":"Housing"}`},
		{"surrounding whitespace", "  {\"category\":\"Housing\"}  ", `{"category":"Housing"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseClassification(t *testing.T) {
	cls, err := parseClassification(`{"category":"Housing","subcategory":"Rent","confidence":0.95}`)
	if err != nil {
		t.Fatalf("parseClassification failed: %v", err)
	}
	if cls.Category != "Housing" || cls.Subcategory != "Rent" || cls.Confidence != 0.95 {
		t.Errorf("Unexpected classification: %+v", cls)
	}

	if _, err := parseClassification(`{"confidence":0.9}`); err == nil {
		t.Error("Expected error for missing category")
	}
	if _, err := parseClassification(`not json`); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}
