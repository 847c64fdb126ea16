// Package report computes monthly income/expense summaries and category
// breakdowns over classified transactions.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// Aggregator selects the active reporting month and computes its summary.
type Aggregator struct {
	Now func() time.Time
	// MinMonthCount is the minimum number of non-ignored transactions for
	// a month to qualify as the active month.
	MinMonthCount int
	// TopN bounds the ranked expense-category list.
	TopN int
}

// NewAggregator returns an aggregator with the standard thresholds.
func NewAggregator() *Aggregator {
	return &Aggregator{Now: time.Now, MinMonthCount: 3, TopN: 5}
}

// ActiveMonth picks the most-frequent qualifying month among non-ignored
// transactions, breaking ties toward the most recent. With no qualifying
// month it falls back to the current calendar month.
func (a *Aggregator) ActiveMonth(txs []model.ClassifiedTransaction) string {
	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.IsIgnored {
			continue
		}
		counts[tx.MonthYear]++
	}

	best, bestCount := "", 0
	for month, n := range counts {
		if n < a.MinMonthCount {
			continue
		}
		// Month keys are YYYY-MM, so string order is date order.
		if n > bestCount || (n == bestCount && month > best) {
			best, bestCount = month, n
		}
	}

	if best == "" {
		return model.CurrentMonthKey(a.Now())
	}
	return best
}

// Summarize computes the summary for month; an empty month means the active
// month. Transfers and reversals never contribute to the totals.
func (a *Aggregator) Summarize(txs []model.ClassifiedTransaction, month string) model.MonthlySummary {
	if month == "" {
		month = a.ActiveMonth(txs)
	}

	s := model.MonthlySummary{
		Month:          month,
		Income:         decimal.Zero,
		Expenses:       decimal.Zero,
		CategoryTotals: make(map[model.Category]decimal.Decimal),
	}

	expenseTotals := make(map[model.Category]decimal.Decimal)
	for _, tx := range txs {
		if tx.MonthYear != month || tx.IsIgnored {
			continue
		}

		switch {
		case tx.IsIncome:
			s.Income = s.Income.Add(tx.Amount)
		case tx.IsExpense:
			s.Expenses = s.Expenses.Add(tx.Amount)
			expenseTotals[tx.Category] = expenseTotals[tx.Category].Add(tx.Amount)
		default:
			continue
		}

		s.TransactionCount++
		s.CategoryTotals[tx.Category] = s.CategoryTotals[tx.Category].Add(tx.Amount)
	}

	s.Balance = s.Income.Sub(s.Expenses)
	if s.Income.IsPositive() {
		s.SavingsRate = s.Balance.Div(s.Income).Mul(oneHundred)
	} else {
		s.SavingsRate = decimal.Zero
	}

	s.TopExpenses = rankExpenses(expenseTotals, a.TopN)
	return s
}

func rankExpenses(totals map[model.Category]decimal.Decimal, topN int) []model.CategoryTotal {
	ranked := make([]model.CategoryTotal, 0, len(totals))
	for cat, total := range totals {
		ranked = append(ranked, model.CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Total.Equal(ranked[j].Total) {
			return ranked[i].Total.GreaterThan(ranked[j].Total)
		}
		return ranked[i].Category < ranked[j].Category
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
