package parse

import (
	"testing"
	"time"
)

func TestParseSingleAmount(t *testing.T) {
	p := NewWithClock(fixedClock)

	lines := []string{
		"Opening Balance 1,234.56",
		"01/15/2024 STARBUCKS STORE 123 $5.75",
		"01/16/2024 DIRECT DEPOSIT PAYROLL $2,500.00",
		"01/17/2024 REFUND AMAZON ($42.10)",
		"Ending balance 3,686.71",
	}

	txs := p.parseSingleAmount(lines)
	if len(txs) != 3 {
		t.Fatalf("Expected 3 transactions, got %d: %+v", len(txs), txs)
	}

	if txs[0].Description != "STARBUCKS STORE" || txs[0].Amount != 5.75 || txs[0].IsIncome {
		t.Errorf("Unexpected first transaction: %+v", txs[0])
	}
	if txs[1].Amount != 2500 || !txs[1].IsIncome {
		t.Errorf("Expected deposit to be income: %+v", txs[1])
	}
	// An income keyword like "refund" wins even when the amount is
	// parenthesized; parens only control the amount's sign.
	if txs[2].Amount != 42.10 || !txs[2].IsIncome {
		t.Errorf("Expected refund with parenthesized amount to be income: %+v", txs[2])
	}
}

func TestParseSingleAmount_ParenthesizedWithoutKeywordIsExpense(t *testing.T) {
	p := NewWithClock(fixedClock)

	txs := p.parseSingleAmount([]string{"01/17/2024 AMAZON MARKETPLACE ($42.10)"})
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Amount != 42.10 || txs[0].IsIncome {
		t.Errorf("Expected expense: %+v", txs[0])
	}
}

func TestParseSingleAmount_AmountOnNextLine(t *testing.T) {
	p := NewWithClock(fixedClock)

	lines := []string{
		"01/18/2024 CHECK 1234",
		"$25.00",
	}

	txs := p.parseSingleAmount(lines)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Description != "CHECK" || txs[0].Amount != 25 {
		t.Errorf("Unexpected transaction: %+v", txs[0])
	}
}

func TestParseSingleAmount_PlusSignMarksIncome(t *testing.T) {
	p := NewWithClock(fixedClock)

	txs := p.parseSingleAmount([]string{"01/19/2024 VENMO CASHOUT +$75.00"})
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if !txs[0].IsIncome || txs[0].Amount != 75 {
		t.Errorf("Expected income of 75, got %+v", txs[0])
	}
}

func TestParseDualColumn(t *testing.T) {
	p := NewWithClock(fixedClock)

	lines := []string{
		"01/15/2024 GROCERY MART 45.67",
		"01/16/2024 PAYCHECK 0.00 1,200.00",
		"01/17/2024 COFFEE CART 3.25 0.00",
		"no transaction here",
	}

	txs := p.parseDualColumn(lines)
	if len(txs) != 3 {
		t.Fatalf("Expected 3 transactions, got %d: %+v", len(txs), txs)
	}

	if txs[0].Description != "GROCERY MART" || txs[0].Amount != 45.67 || txs[0].IsIncome {
		t.Errorf("Unexpected first transaction: %+v", txs[0])
	}
	// Zero debit with a nonzero second column is the credit column.
	if txs[1].Amount != 1200 || !txs[1].IsIncome {
		t.Errorf("Expected credit-column income: %+v", txs[1])
	}
	if txs[2].Amount != 3.25 || txs[2].IsIncome {
		t.Errorf("Unexpected third transaction: %+v", txs[2])
	}
}

func TestParseAggressive(t *testing.T) {
	p := NewWithClock(fixedClock)

	lines := []string{
		"Jan 5 GYM MEMBERSHIP 45.00",
		"Jan 6 DEPOSIT FROM EMPLOYER 2,000.00",
		"nothing to see",
	}

	txs := p.parseAggressive(lines)
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d: %+v", len(txs), txs)
	}

	wantDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if !txs[0].Date.Equal(wantDate) {
		t.Errorf("Expected year filled from processing date, got %v", txs[0].Date)
	}
	if txs[0].Amount != 45 || txs[0].IsIncome {
		t.Errorf("Unexpected first transaction: %+v", txs[0])
	}
	if txs[1].Amount != 2000 || !txs[1].IsIncome {
		t.Errorf("Expected deposit income: %+v", txs[1])
	}
}

func TestParseAggressive_TakesLastNumericToken(t *testing.T) {
	p := NewWithClock(fixedClock)

	// A trailing balance column wins over the real amount. Documented
	// behavior of the loosest pass.
	txs := p.parseAggressive([]string{"1/7 COFFEE SHOP 4.50 1,204.33"})
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Amount != 1204.33 {
		t.Errorf("Expected last numeric token as amount, got %v", txs[0].Amount)
	}
}

func TestParseAggressive_AmountCeiling(t *testing.T) {
	p := NewWithClock(fixedClock)

	txs := p.parseAggressive([]string{"1/7 WIRE OUT 2,500,000.00 840.12"})
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Amount != 840.12 {
		t.Errorf("Expected amount under ceiling, got %v", txs[0].Amount)
	}
}

func TestParseLines_FirstStrategyWins(t *testing.T) {
	p := NewWithClock(fixedClock)

	// The full-date line satisfies the strict pass, so the partial-date line
	// is not picked up by the aggressive pass.
	lines := []string{
		"01/15/2024 HARDWARE STORE $19.99",
		"Jan 20 MYSTERY VENDOR 7.77",
	}

	txs := p.ParseLines(lines)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d: %+v", len(txs), txs)
	}
	if txs[0].Description != "HARDWARE STORE" {
		t.Errorf("Unexpected transaction: %+v", txs[0])
	}
}

func TestParseLines_FallsThroughToAggressive(t *testing.T) {
	p := NewWithClock(fixedClock)

	txs := p.ParseLines([]string{"Jan 5 GYM MEMBERSHIP 45.00"})
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Description != "GYM MEMBERSHIP" {
		t.Errorf("Unexpected transaction: %+v", txs[0])
	}
}

func TestParseLines_NoMatches(t *testing.T) {
	p := NewWithClock(fixedClock)

	if txs := p.ParseLines([]string{"Thank you for banking with us", "Page 1 of 3"}); len(txs) != 0 {
		t.Errorf("Expected no transactions, got %+v", txs)
	}
}

func TestIsSummaryLine(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Opening Balance 1,234.56", true},
		{"Total 99.00", true},
		{"Page 1 of 3", true},
		{"01/15/2024 BALANCE TRANSFER PAYMENT FROM SAVINGS 100.00", false},
		{"01/15/2024 COFFEE 4.50", false},
	}

	for _, tt := range tests {
		if got := isSummaryLine(tt.in); got != tt.want {
			t.Errorf("isSummaryLine(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
