// Package categorizer refines rule-classified transactions with a
// model-backed second pass. The pass is strictly best-effort: an import
// never fails because the model was unavailable.
package categorizer

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is one transaction sent for categorization.
type Item struct {
	Description string
	Merchant    string
	Amount      decimal.Decimal
	Date        string
}

// Result is the model's verdict for one Item, index-aligned with the
// request slice.
type Result struct {
	Category    string
	Subcategory string
	BudgetGroup string
	Confidence  float64
}

// Categorizer assigns categories to a batch of transactions.
type Categorizer interface {
	Categorize(ctx context.Context, items []Item) ([]Result, error)
}
