package categorizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

type fakeClient struct {
	calls    int
	failures int
	results  []Result
}

func (f *fakeClient) Categorize(_ context.Context, items []Item) ([]Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("rate limited")
	}
	if f.results != nil {
		return f.results[:len(items)], nil
	}
	out := make([]Result, len(items))
	for i := range out {
		out[i] = Result{Category: "Shopping", Subcategory: "GENERAL", BudgetGroup: "discretionary", Confidence: 0.9}
	}
	return out, nil
}

func unclassified(desc string, amount string) model.ClassifiedTransaction {
	raw := decimal.RequireFromString(amount)
	return model.ClassifiedTransaction{
		Transaction: model.Transaction{
			Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Description: desc,
			Amount:      raw.Abs(),
			RawSign:     raw,
		},
		Category:    model.CategoryOther,
		Subcategory: model.SubUnclassifiedDebit,
		IsIgnored:   true,
		Confidence:  0.3,
		MonthYear:   "2024-05",
	}
}

func testEngine(c Categorizer) *Engine {
	e := NewEngine(c)
	e.BatchDelay = 0
	e.RetryDelay = 0
	return e
}

func TestRefineUpgradesUnclassified(t *testing.T) {
	txs := []model.ClassifiedTransaction{
		unclassified("MIGHTY APE LTD", "-59.99"),
	}

	n := testEngine(&fakeClient{}).Refine(context.Background(), txs)

	assert.Equal(t, 1, n)
	assert.Equal(t, model.CategoryShopping, txs[0].Category)
	assert.Equal(t, "GENERAL", txs[0].Subcategory)
	assert.InDelta(t, 0.9, txs[0].Confidence, 0.001)
	assert.True(t, txs[0].IsExpense)
	assert.False(t, txs[0].IsIgnored, "refined rows count toward monthly totals")
}

func TestRefineSkipsClassified(t *testing.T) {
	txs := []model.ClassifiedTransaction{
		{
			Transaction: model.Transaction{Description: "Countdown"},
			Category:    model.CategoryGroceries,
			IsExpense:   true,
			Confidence:  0.85,
		},
	}

	client := &fakeClient{}
	n := testEngine(client).Refine(context.Background(), txs)

	assert.Zero(t, n)
	assert.Zero(t, client.calls, "no batch should be sent when nothing is unclassified")
	assert.Equal(t, model.CategoryGroceries, txs[0].Category)
}

func TestRefineIgnoresLowConfidence(t *testing.T) {
	txs := []model.ClassifiedTransaction{unclassified("MYSTERY EFTPOS", "-10.00")}
	client := &fakeClient{results: []Result{
		{Category: "Shopping", Confidence: 0.4},
	}}

	n := testEngine(client).Refine(context.Background(), txs)

	assert.Zero(t, n)
	assert.Equal(t, model.CategoryOther, txs[0].Category)
}

func TestRefineRejectsUnknownCategory(t *testing.T) {
	txs := []model.ClassifiedTransaction{unclassified("MYSTERY EFTPOS", "-10.00")}
	client := &fakeClient{results: []Result{
		{Category: "Cryptocurrency", Confidence: 0.95},
	}}

	n := testEngine(client).Refine(context.Background(), txs)

	assert.Zero(t, n)
	assert.Equal(t, model.CategoryOther, txs[0].Category)
}

func TestRefineRetriesOnce(t *testing.T) {
	txs := []model.ClassifiedTransaction{unclassified("MIGHTY APE LTD", "-59.99")}
	client := &fakeClient{failures: 1}

	n := testEngine(client).Refine(context.Background(), txs)

	assert.Equal(t, 1, n)
	assert.Equal(t, 2, client.calls)
}

func TestRefineSurvivesPersistentFailure(t *testing.T) {
	txs := []model.ClassifiedTransaction{unclassified("MIGHTY APE LTD", "-59.99")}
	client := &fakeClient{failures: 10}

	n := testEngine(client).Refine(context.Background(), txs)

	assert.Zero(t, n)
	assert.Equal(t, model.CategoryOther, txs[0].Category, "rule-based category survives")
}

func TestRefineBatches(t *testing.T) {
	var txs []model.ClassifiedTransaction
	for range 5 {
		txs = append(txs, unclassified("MYSTERY EFTPOS", "-10.00"))
	}
	client := &fakeClient{}
	e := testEngine(client)
	e.BatchSize = 2

	n := e.Refine(context.Background(), txs)

	assert.Equal(t, 5, n)
	assert.Equal(t, 3, client.calls)
}

func TestRefineStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := []model.ClassifiedTransaction{unclassified("MYSTERY EFTPOS", "-10.00")}
	n := testEngine(&fakeClient{}).Refine(ctx, txs)

	require.Zero(t, n)
	assert.Equal(t, model.CategoryOther, txs[0].Category)
}
