package categorizer

import (
	"context"
	"time"

	"github.com/bankfeed-dev/bankfeed/internal/logger"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Engine drives the model pass over unclassified transactions in bounded
// batches. Model failures are logged and swallowed; the rule-based
// classification stands whenever the model can't improve on it.
type Engine struct {
	Client              Categorizer
	BatchSize           int
	BatchDelay          time.Duration
	RetryDelay          time.Duration
	ConfidenceThreshold float64
}

// NewEngine creates an Engine with the given client and sensible limits.
func NewEngine(client Categorizer) *Engine {
	return &Engine{
		Client:              client,
		BatchSize:           40,
		BatchDelay:          2 * time.Second,
		RetryDelay:          5 * time.Second,
		ConfidenceThreshold: 0.70,
	}
}

// Refine upgrades transactions the rule table left in Other, in place.
// Returns the number of transactions the model re-categorized.
func (e *Engine) Refine(ctx context.Context, txs []model.ClassifiedTransaction) int {
	log := logger.FromContext(ctx)

	var candidates []int
	for i := range txs {
		if txs[i].Category == model.CategoryOther && txs[i].Subcategory == model.SubUnclassifiedDebit {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 || e.Client == nil {
		return 0
	}

	refined := 0
	for start := 0; start < len(candidates); start += e.BatchSize {
		if ctx.Err() != nil {
			return refined
		}
		end := min(start+e.BatchSize, len(candidates))
		batch := candidates[start:end]

		items := make([]Item, len(batch))
		for j, idx := range batch {
			items[j] = Item{
				Description: txs[idx].Description,
				Merchant:    txs[idx].Merchant,
				Amount:      txs[idx].RawSign,
				Date:        txs[idx].Date.Format("2006-01-02"),
			}
		}

		results, err := e.categorizeWithRetry(ctx, items)
		if err != nil {
			log.Warn().Err(err).Int("batch_size", len(items)).
				Msg("categorizer batch failed, keeping rule-based categories")
			continue
		}

		for j, idx := range batch {
			if e.apply(&txs[idx], results[j]) {
				refined++
			}
		}

		if end < len(candidates) {
			if !sleep(ctx, e.BatchDelay) {
				return refined
			}
		}
	}
	return refined
}

func (e *Engine) categorizeWithRetry(ctx context.Context, items []Item) ([]Result, error) {
	results, err := e.Client.Categorize(ctx, items)
	if err == nil {
		return results, nil
	}
	if !sleep(ctx, e.RetryDelay) {
		return nil, err
	}
	return e.Client.Categorize(ctx, items)
}

// apply overwrites a transaction's category when the model is confident
// enough and names a known expense category.
func (e *Engine) apply(tx *model.ClassifiedTransaction, res Result) bool {
	if res.Confidence < e.ConfidenceThreshold || res.Confidence <= tx.Confidence {
		return false
	}
	cat := model.Category(res.Category)
	if !isExpenseCategory(cat) {
		return false
	}
	tx.Category = cat
	tx.Subcategory = res.Subcategory
	tx.BudgetGroup = res.BudgetGroup
	tx.Confidence = res.Confidence
	tx.IsExpense = true
	tx.IsIgnored = false
	return true
}

func isExpenseCategory(c model.Category) bool {
	for _, e := range expenseCategories {
		if c == e {
			return true
		}
	}
	return false
}

// sleep waits for d or until the context is done. Reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
