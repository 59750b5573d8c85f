package parse

import (
	"testing"
	"time"

	"github.com/dvloznov/budgetwise/internal/extract"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 10, 15, 4, 5, 0, time.UTC)
}

func TestParseRows(t *testing.T) {
	p := NewWithClock(fixedClock)

	rows := []extract.Row{
		{"Date": "2024-01-15", "Description": "STARBUCKS STORE 123", "Amount": "-5.75"},
		{"Date": "2024-01-16", "Description": "PAYROLL ACME CORP", "Amount": "2500.00"},
		{"Date": "01/17/2024", "Description": "AMAZON MARKETPLACE", "Amount": "(42.10)"},
	}

	txs := p.ParseRows(rows)
	if len(txs) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(txs))
	}

	want := []Transaction{
		{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "STARBUCKS STORE", Amount: 5.75, IsIncome: false},
		{Date: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), Description: "PAYROLL ACME CORP", Amount: 2500, IsIncome: true},
		{Date: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), Description: "AMAZON MARKETPLACE", Amount: 42.10, IsIncome: false},
	}
	for i, w := range want {
		got := txs[i]
		if !got.Date.Equal(w.Date) || got.Description != w.Description || got.Amount != w.Amount || got.IsIncome != w.IsIncome {
			t.Errorf("Transaction %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestParseRows_HeaderSynonyms(t *testing.T) {
	p := NewWithClock(fixedClock)

	rows := []extract.Row{
		{"Posting Date": "2024-02-01", "Memo": "ELECTRIC COMPANY", "Debit": "-120.00"},
		{"trans date": "2024-02-02", "Payee": "EMPLOYER INC", "Value": "1000.00"},
	}

	txs := p.ParseRows(rows)
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Description != "ELECTRIC COMPANY" || txs[0].IsIncome {
		t.Errorf("Unexpected first transaction: %+v", txs[0])
	}
	if txs[1].Description != "EMPLOYER INC" || !txs[1].IsIncome {
		t.Errorf("Unexpected second transaction: %+v", txs[1])
	}
}

func TestParseRows_SkipsUnusableRows(t *testing.T) {
	p := NewWithClock(fixedClock)

	rows := []extract.Row{
		{"Date": "2024-01-15", "Description": "", "Amount": "5.00"},
		{"Date": "2024-01-15", "Description": "NO AMOUNT", "Amount": ""},
		{"Date": "2024-01-15", "Description": "BAD AMOUNT", "Amount": "n/a"},
		{"Date": "2024-01-15", "Description": "KEPT", "Amount": "1.00"},
	}

	txs := p.ParseRows(rows)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Description != "KEPT" {
		t.Errorf("Expected KEPT, got %q", txs[0].Description)
	}
}

func TestParseRows_UnparsableDateFallsBackToProcessingDate(t *testing.T) {
	p := NewWithClock(fixedClock)

	rows := []extract.Row{
		{"Date": "not a date", "Description": "MYSTERY CHARGE", "Amount": "9.99"},
	}

	txs := p.ParseRows(rows)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	want := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !txs[0].Date.Equal(want) {
		t.Errorf("Expected fallback date %v, got %v", want, txs[0].Date)
	}
}

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"5.75", 5.75, true},
		{"-5.75", -5.75, true},
		{"+10.00", 10, true},
		{"$1,234.56", 1234.56, true},
		{"£120.00", 120, true},
		{"€35.50", 35.50, true},
		{"(42.10)", -42.10, true},
		{"($ 42.10)", -42.10, true},
		{"-$15.00", -15, true},
		{"1,000", 1000, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"12.34.56", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseSignedAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseSignedAmount(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDedupe(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{Date: day, Description: "COFFEE", Amount: 4.50},
		{Date: day, Description: "COFFEE", Amount: 4.50, IsIncome: true},
		{Date: day, Description: "COFFEE", Amount: 4.51},
		{Date: day.AddDate(0, 0, 1), Description: "COFFEE", Amount: 4.50},
	}

	out := Dedupe(txs)
	if len(out) != 3 {
		t.Fatalf("Expected 3 transactions after dedupe, got %d", len(out))
	}
	// First occurrence wins, including its direction flag.
	if out[0].IsIncome {
		t.Error("Expected first occurrence to win")
	}
}

func TestParse_DispatchesOnKind(t *testing.T) {
	p := NewWithClock(fixedClock)

	rowResult := &extract.Result{
		Kind: extract.KindRows,
		Rows: []extract.Row{{"Date": "2024-01-15", "Description": "SHOP", "Amount": "3.00"}},
	}
	if txs := p.Parse(rowResult); len(txs) != 1 {
		t.Errorf("Expected 1 transaction from rows, got %d", len(txs))
	}

	lineResult := &extract.Result{
		Kind:  extract.KindLines,
		Lines: []string{"01/15/2024 CORNER SHOP $3.00"},
	}
	if txs := p.Parse(lineResult); len(txs) != 1 {
		t.Errorf("Expected 1 transaction from lines, got %d", len(txs))
	}
}

func TestParseDateToken(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"1/5/24", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"1-5-2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"Jan 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"15 Jan 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"January 15 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"tomorrow", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := parseDateToken(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDateToken(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("parseDateToken(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePartialDateToken_YearFromClock(t *testing.T) {
	now := fixedClock()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"1/5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"Jan 5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"5 Jan", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := parsePartialDateToken(tt.in, now)
		if !ok {
			t.Errorf("parsePartialDateToken(%q) failed", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parsePartialDateToken(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
