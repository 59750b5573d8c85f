// Package parse converts extracted statement rows and lines into normalized
// transactions. Statement layouts are unknown ahead of time and inconsistent
// even within the same institution, so document parsing is a cascade of
// heuristics rather than a grammar.
package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/budgetwise/internal/extract"
)

// Transaction is one normalized transaction extracted from a statement.
// Amount is always non-negative; direction is carried by IsIncome.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      float64
	IsIncome    bool
}

// Parser turns extracted rows or lines into transactions. The clock is
// injectable because unparsable date tokens fall back to the current
// processing date.
type Parser struct {
	now func() time.Time
}

// New creates a parser using the wall clock.
func New() *Parser {
	return &Parser{now: time.Now}
}

// NewWithClock creates a parser with a fixed clock, for tests.
func NewWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Header synonyms probed in order for each logical field. Bank exports
// disagree on naming, so the first present, non-empty value wins.
var (
	dateKeys = []string{
		"date", "transaction date", "posting date", "post date",
		"posted date", "trans date", "value date", "booking date",
	}
	descriptionKeys = []string{
		"description", "details", "memo", "narrative", "transaction",
		"payee", "merchant", "name", "reference",
	}
	amountKeys = []string{
		"amount", "transaction amount", "value", "debit", "credit",
		"money in", "money out",
	}
)

// Parse dispatches on the extraction result kind and always ends with a
// within-run deduplication pass.
func (p *Parser) Parse(result *extract.Result) []Transaction {
	switch result.Kind {
	case extract.KindRows:
		return Dedupe(p.ParseRows(result.Rows))
	default:
		return Dedupe(p.ParseLines(result.Lines))
	}
}

// ParseRows converts tabular rows into transactions, one row to at most one
// transaction. Rows missing a required field or with an unparsable amount are
// skipped, never errors.
func (p *Parser) ParseRows(rows []extract.Row) []Transaction {
	var txs []Transaction
	for _, row := range rows {
		normalized := make(map[string]string, len(row))
		for k, v := range row {
			normalized[strings.ToLower(strings.TrimSpace(k))] = v
		}

		dateRaw := firstValue(normalized, dateKeys)
		descRaw := firstValue(normalized, descriptionKeys)
		amountRaw := firstValue(normalized, amountKeys)
		if dateRaw == "" || descRaw == "" || amountRaw == "" {
			continue
		}

		signed, ok := parseSignedAmount(amountRaw)
		if !ok {
			continue
		}

		desc := CleanDescription(descRaw)
		if desc == "" {
			continue
		}

		txs = append(txs, Transaction{
			Date:        p.dateOrNow(dateRaw),
			Description: desc,
			Amount:      math.Abs(signed),
			IsIncome:    signed > 0,
		})
	}
	return txs
}

func firstValue(row map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

// parseSignedAmount parses a currency string into a signed value, stripping
// currency symbols and thousands separators. Parentheses denote a debit.
func parseSignedAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range []string{"$", "£", "€", ","} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)

	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// Dedupe collapses transactions with an identical (date, description, amount)
// triple; the first occurrence wins. This guards against one source line being
// matched by more than one heuristic pass or appearing twice in the text.
func Dedupe(txs []Transaction) []Transaction {
	seen := make(map[string]bool, len(txs))
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		key := fmt.Sprintf("%s|%s|%.2f", tx.Date.Format("2006-01-02"), tx.Description, tx.Amount)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tx)
	}
	return out
}
