package parse

import (
	"math"
	"regexp"
	"strings"
)

// Date token grammars recognized inside statement text: slash or dash
// numeric dates, ISO dates, and month-name forms in either order.
const monthName = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?`

const datePattern = `(?:\d{4}-\d{2}-\d{2}` +
	`|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}` +
	`|` + monthName + `\s+\d{1,2},?\s+\d{4}` +
	`|\d{1,2}\s+` + monthName + `,?\s+\d{4})`

const partialDatePattern = `(?:\d{4}-\d{2}-\d{2}` +
	`|\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?` +
	`|` + monthName + `\s+\d{1,2}(?:,?\s+\d{4})?` +
	`|\d{1,2}\s+` + monthName + `(?:,?\s+\d{4})?)`

var (
	dateTokenRe   = regexp.MustCompile(`(?i)\b` + datePattern + `\b`)
	partialDateRe = regexp.MustCompile(`(?i)\b` + partialDatePattern + `\b`)
	// An amount is either a currency-prefixed number or a bare number with
	// cents; both may be parenthesized (a debit) or carry an explicit sign.
	amountTokenRe = regexp.MustCompile(`\(?[-+]?\s?\$\s?\d[\d,]*(?:\.\d{1,2})?\)?|\(?[-+]?\d{1,3}(?:,\d{3})*\.\d{2}\)?`)
	numberTokenRe = regexp.MustCompile(`\$?\d[\d,]*(?:\.\d{1,2})?`)
	dualColumnRe  = regexp.MustCompile(`(?i)^\s*(` + datePattern + `)\s+(.*?)\s+(\d[\d,]*\.\d{2})(?:\s+(\d[\d,]*\.\d{2}))?\s*$`)
)

// Words that mark a short line as a header or summary rather than activity.
var summaryWords = []string{
	"balance", "total", "page", "statement", "routing", "summary",
	"opening", "closing", "account number",
}

const summaryTokenLimit = 5

func isSummaryLine(line string) bool {
	if len(strings.Fields(line)) >= summaryTokenLimit {
		return false
	}
	lower := strings.ToLower(line)
	for _, w := range summaryWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Keywords that mark a statement line as money in rather than money out.
var incomeKeywords = []string{
	"deposit", "credit", "refund", "payment received", "direct dep",
	"payroll", "salary", "income", "interest earned", "dividend",
	"cash back", "reimbursement", "transfer from", "venmo from",
	"zelle from", "paypal from",
}

func containsIncomeKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseLines applies the parsing strategies in order and returns the result
// of the first strategy that yields at least one transaction. Strategies are
// never merged; a partial match from a stricter pass beats a broad one.
func (p *Parser) ParseLines(lines []string) []Transaction {
	strategies := []func([]string) []Transaction{
		p.parseSingleAmount,
		p.parseDualColumn,
		p.parseAggressive,
	}
	for _, strategy := range strategies {
		if txs := strategy(lines); len(txs) > 0 {
			return txs
		}
	}
	return nil
}

// parseSingleAmount handles the common layout of one amount per transaction
// line. The amount is looked for on the date line first, then on the next
// line; the description is whatever remains once date and amount are removed.
func (p *Parser) parseSingleAmount(lines []string) []Transaction {
	var txs []Transaction
	for i, line := range lines {
		if isSummaryLine(line) {
			continue
		}
		dateLoc := dateTokenRe.FindStringIndex(line)
		if dateLoc == nil {
			continue
		}
		dateToken := line[dateLoc[0]:dateLoc[1]]
		remainder := line[:dateLoc[0]] + " " + line[dateLoc[1]:]

		amountToken := ""
		amountOnNext := false
		if loc := amountTokenRe.FindStringIndex(remainder); loc != nil {
			amountToken = remainder[loc[0]:loc[1]]
			remainder = remainder[:loc[0]] + " " + remainder[loc[1]:]
		} else if i+1 < len(lines) {
			if loc := amountTokenRe.FindStringIndex(lines[i+1]); loc != nil {
				amountToken = lines[i+1][loc[0]:loc[1]]
				amountOnNext = true
			}
		}
		if amountToken == "" {
			continue
		}

		desc := CleanDescription(remainder)
		if desc == "" && i+1 < len(lines) {
			next := lines[i+1]
			if amountOnNext {
				if loc := amountTokenRe.FindStringIndex(next); loc != nil {
					next = next[:loc[0]] + " " + next[loc[1]:]
				}
			}
			next = dateTokenRe.ReplaceAllString(next, " ")
			desc = CleanDescription(next)
		}
		if desc == "" {
			continue
		}

		parenthesized := strings.HasPrefix(strings.TrimSpace(amountToken), "(")
		signed, ok := parseSignedAmount(amountToken)
		if !ok {
			continue
		}

		// An income keyword classifies the line on its own; a literal "+"
		// counts only when the amount is not parenthesized.
		income := containsIncomeKeyword(line) ||
			(!parenthesized && strings.Contains(amountToken, "+"))

		txs = append(txs, Transaction{
			Date:        p.dateOrNow(dateToken),
			Description: desc,
			Amount:      math.Abs(signed),
			IsIncome:    income,
		})
	}
	return txs
}

// parseDualColumn handles layouts with separate debit and credit columns:
// a date, a description, then one or two trailing decimal amounts. A nonzero
// second amount with a zero or absent first is the credit column.
func (p *Parser) parseDualColumn(lines []string) []Transaction {
	var txs []Transaction
	for _, line := range lines {
		m := dualColumnRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dateToken, descRaw, firstRaw, secondRaw := m[1], m[2], m[3], m[4]

		desc := CleanDescription(descRaw)
		if desc == "" {
			continue
		}

		first, _ := parseSignedAmount(firstRaw)
		amount := first
		income := false
		if secondRaw != "" {
			second, _ := parseSignedAmount(secondRaw)
			if second != 0 && first == 0 {
				amount = second
				income = true
			}
		}
		if amount == 0 {
			continue
		}

		txs = append(txs, Transaction{
			Date:        p.dateOrNow(dateToken),
			Description: desc,
			Amount:      math.Abs(amount),
			IsIncome:    income,
		})
	}
	return txs
}

// parseAggressive is the loosest pass: any line with a partial date token and
// a numeric token under one million is accepted. The last numeric token is
// taken as the amount on the theory that trailing numbers are more likely the
// transaction total than a running balance. That heuristic misfires on lines
// ending in a balance column; a known accuracy ceiling of plain-text parsing.
func (p *Parser) parseAggressive(lines []string) []Transaction {
	const amountCeiling = 1_000_000

	var txs []Transaction
	for _, line := range lines {
		dateToken := partialDateRe.FindString(line)
		if dateToken == "" {
			continue
		}
		remainder := strings.Replace(line, dateToken, " ", 1)

		tokens := numberTokenRe.FindAllString(remainder, -1)
		amountToken := ""
		amount := 0.0
		for i := len(tokens) - 1; i >= 0; i-- {
			v, ok := parseSignedAmount(tokens[i])
			if ok && math.Abs(v) > 0 && math.Abs(v) < amountCeiling {
				amountToken = tokens[i]
				amount = math.Abs(v)
				break
			}
		}
		if amountToken == "" {
			continue
		}

		if idx := strings.LastIndex(remainder, amountToken); idx != -1 {
			remainder = remainder[:idx] + " " + remainder[idx+len(amountToken):]
		}
		desc := CleanDescription(remainder)
		if desc == "" {
			continue
		}

		txs = append(txs, Transaction{
			Date:        p.partialDateOrNow(dateToken),
			Description: desc,
			Amount:      amount,
			IsIncome:    containsIncomeKeyword(line),
		})
	}
	return txs
}
