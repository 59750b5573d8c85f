// Package aggregate computes read-only period summaries over stored
// transactions for budget and analytics consumers. Summaries are recomputed
// on demand and never cached.
package aggregate

import (
	"sort"
	"time"
)

// Transaction is the minimal stored-transaction view the aggregator reads.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      float64
	IsIncome    bool
	Category    string
}

// CategoryTotal is the summed expense amount for one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// DailyPoint is one day's income and expense totals.
type DailyPoint struct {
	Date     time.Time `json:"date"`
	Income   float64   `json:"income"`
	Expenses float64   `json:"expenses"`
}

// ExpenseItem is one of the period's largest single expenses.
type ExpenseItem struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

// Summary is the aggregated view of one (month, year) period.
type Summary struct {
	Month             time.Month      `json:"month"`
	Year              int             `json:"year"`
	TotalIncome       float64         `json:"total_income"`
	TotalExpenses     float64         `json:"total_expenses"`
	SavingsRate       float64         `json:"savings_rate"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
	DailyTrend        []DailyPoint    `json:"daily_trend"`
	TopExpenses       []ExpenseItem   `json:"top_expenses"`
}

const topExpenseCount = 10

// Summarize buckets the period's transactions by category and day and
// computes income/expense/savings totals. Transactions outside the period
// are ignored so callers may pass unfiltered slices.
func Summarize(txs []Transaction, month time.Month, year int) Summary {
	summary := Summary{Month: month, Year: year}

	byCategory := make(map[string]*CategoryTotal)
	byDay := make(map[time.Time]*DailyPoint)
	var expenses []ExpenseItem

	for _, tx := range txs {
		if tx.Date.Month() != month || tx.Date.Year() != year {
			continue
		}

		day := time.Date(tx.Date.Year(), tx.Date.Month(), tx.Date.Day(), 0, 0, 0, 0, time.UTC)
		point, ok := byDay[day]
		if !ok {
			point = &DailyPoint{Date: day}
			byDay[day] = point
		}

		if tx.IsIncome {
			summary.TotalIncome += tx.Amount
			point.Income += tx.Amount
			continue
		}

		summary.TotalExpenses += tx.Amount
		point.Expenses += tx.Amount

		total, ok := byCategory[tx.Category]
		if !ok {
			total = &CategoryTotal{Category: tx.Category}
			byCategory[tx.Category] = total
		}
		total.Total += tx.Amount
		total.Count++

		expenses = append(expenses, ExpenseItem{
			Description: tx.Description,
			Amount:      tx.Amount,
			Category:    tx.Category,
			Date:        tx.Date,
		})
	}

	if summary.TotalIncome > 0 {
		summary.SavingsRate = (summary.TotalIncome - summary.TotalExpenses) / summary.TotalIncome * 100
	}

	summary.CategoryBreakdown = make([]CategoryTotal, 0, len(byCategory))
	for _, total := range byCategory {
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, *total)
	}
	sort.Slice(summary.CategoryBreakdown, func(i, j int) bool {
		a, b := summary.CategoryBreakdown[i], summary.CategoryBreakdown[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Category < b.Category
	})

	summary.DailyTrend = make([]DailyPoint, 0, len(byDay))
	for _, point := range byDay {
		summary.DailyTrend = append(summary.DailyTrend, *point)
	}
	sort.Slice(summary.DailyTrend, func(i, j int) bool {
		return summary.DailyTrend[i].Date.Before(summary.DailyTrend[j].Date)
	})

	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Amount > expenses[j].Amount
	})
	if len(expenses) > topExpenseCount {
		expenses = expenses[:topExpenseCount]
	}
	summary.TopExpenses = expenses

	return summary
}
