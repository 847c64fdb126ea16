package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func rtx(month time.Month, day int, amount string, income bool, cat model.Category) model.ClassifiedTransaction {
	raw := decimal.RequireFromString(amount)
	date := time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
	tx := model.ClassifiedTransaction{
		Transaction: model.Transaction{
			Date:    date,
			Amount:  raw.Abs(),
			RawSign: raw,
		},
		Category:  cat,
		MonthYear: model.FormatMonthKey(date.Year(), int(date.Month())),
	}
	if income {
		tx.IsIncome = true
	} else {
		tx.IsExpense = true
	}
	return tx
}

func testAggregator() *Aggregator {
	a := NewAggregator()
	a.Now = func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }
	return a
}

func TestSummarizeBalanceAndSavingsRate(t *testing.T) {
	a := testAggregator()

	s := a.Summarize([]model.ClassifiedTransaction{
		rtx(time.June, 1, "1000.00", true, model.CategoryIncome),
		rtx(time.June, 5, "-500.00", false, model.CategoryHousing),
		rtx(time.June, 9, "-300.00", false, model.CategoryGroceries),
	}, "2024-06")

	assert.True(t, s.Income.Equal(decimal.RequireFromString("1000")))
	assert.True(t, s.Expenses.Equal(decimal.RequireFromString("800")))
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("200")))
	assert.True(t, s.SavingsRate.Equal(decimal.RequireFromString("20")), "got %s", s.SavingsRate)
	assert.Equal(t, 3, s.TransactionCount)
}

func TestSummarizeZeroIncome(t *testing.T) {
	a := testAggregator()
	s := a.Summarize([]model.ClassifiedTransaction{
		rtx(time.June, 5, "-50.00", false, model.CategoryDining),
	}, "2024-06")

	assert.True(t, s.SavingsRate.IsZero())
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("-50")))
}

func TestSummarizeExcludesIgnored(t *testing.T) {
	a := testAggregator()

	transfer := rtx(time.June, 2, "-2000.00", false, model.CategoryTransfer)
	transfer.IsExpense = false
	transfer.IsTransfer = true
	transfer.IsIgnored = true

	s := a.Summarize([]model.ClassifiedTransaction{
		rtx(time.June, 1, "1000.00", true, model.CategoryIncome),
		transfer,
	}, "2024-06")

	assert.True(t, s.Expenses.IsZero())
	assert.Equal(t, 1, s.TransactionCount)
}

func TestActiveMonthMostFrequent(t *testing.T) {
	a := testAggregator()

	txs := []model.ClassifiedTransaction{
		rtx(time.May, 1, "-10.00", false, model.CategoryDining),
		rtx(time.May, 2, "-10.00", false, model.CategoryDining),
		rtx(time.May, 3, "-10.00", false, model.CategoryDining),
		rtx(time.May, 4, "-10.00", false, model.CategoryDining),
		rtx(time.June, 1, "-10.00", false, model.CategoryDining),
		rtx(time.June, 2, "-10.00", false, model.CategoryDining),
	}
	assert.Equal(t, "2024-05", a.ActiveMonth(txs), "june has too few transactions")
}

func TestActiveMonthTieBreaksRecent(t *testing.T) {
	a := testAggregator()

	var txs []model.ClassifiedTransaction
	for day := 1; day <= 3; day++ {
		txs = append(txs, rtx(time.May, day, "-10.00", false, model.CategoryDining))
		txs = append(txs, rtx(time.June, day, "-10.00", false, model.CategoryDining))
	}
	assert.Equal(t, "2024-06", a.ActiveMonth(txs))
}

func TestActiveMonthFallsBackToCurrent(t *testing.T) {
	a := testAggregator()
	assert.Equal(t, "2024-09", a.ActiveMonth(nil))
}

func TestTopExpensesRanked(t *testing.T) {
	a := testAggregator()
	a.TopN = 2

	s := a.Summarize([]model.ClassifiedTransaction{
		rtx(time.June, 1, "-300.00", false, model.CategoryHousing),
		rtx(time.June, 2, "-100.00", false, model.CategoryGroceries),
		rtx(time.June, 3, "-200.00", false, model.CategoryDining),
	}, "2024-06")

	require.Len(t, s.TopExpenses, 2)
	assert.Equal(t, model.CategoryHousing, s.TopExpenses[0].Category)
	assert.Equal(t, model.CategoryDining, s.TopExpenses[1].Category)
}
