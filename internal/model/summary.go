package model

import "github.com/shopspring/decimal"

// Warning records a non-fatal parsing or normalization fallback for one row.
type Warning struct {
	Line    int
	Field   string
	Message string
}

// CategoryTotal is one entry in a ranked category breakdown.
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
}

// MonthlySummary is the reporting output for one month of transactions.
type MonthlySummary struct {
	Month            string
	Income           decimal.Decimal
	Expenses         decimal.Decimal
	Balance          decimal.Decimal
	SavingsRate      decimal.Decimal // percentage, 0 when income is 0
	TransactionCount int
	CategoryTotals   map[Category]decimal.Decimal
	TopExpenses      []CategoryTotal
}
