package reversal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func ctx(desc string, amount string, day int) model.ClassifiedTransaction {
	raw := decimal.RequireFromString(amount)
	return model.ClassifiedTransaction{
		Transaction: model.Transaction{
			Date:        time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
			Description: desc,
			Amount:      raw.Abs(),
			RawSign:     raw,
		},
	}
}

func TestDetectOffsettingPair(t *testing.T) {
	d := NewDetector()

	valid, pairs := d.Detect([]model.ClassifiedTransaction{
		ctx("HARVEY NORMAN BOTANY", "-100.00", 1),
		ctx("HARVEY NORMAN BOTANY", "100.00", 4),
		ctx("COUNTDOWN", "-55.00", 2),
	})

	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].Debit.RawSign.IsNegative())
	assert.True(t, pairs[0].Credit.RawSign.IsPositive())

	require.Len(t, valid, 1)
	assert.Equal(t, "COUNTDOWN", valid[0].Description)
}

func TestDetectRespectsWindow(t *testing.T) {
	d := NewDetector()

	valid, pairs := d.Detect([]model.ClassifiedTransaction{
		ctx("HARVEY NORMAN", "-100.00", 1),
		ctx("HARVEY NORMAN", "100.00", 20), // 19 days later
	})

	assert.Empty(t, pairs)
	assert.Len(t, valid, 2)
}

func TestDetectRequiresOppositeSigns(t *testing.T) {
	d := NewDetector()

	_, pairs := d.Detect([]model.ClassifiedTransaction{
		ctx("SHOP A", "-100.00", 1),
		ctx("SHOP A", "-100.00", 2),
	})
	assert.Empty(t, pairs)
}

func TestDetectRequiresAmountMatch(t *testing.T) {
	d := NewDetector()

	_, pairs := d.Detect([]model.ClassifiedTransaction{
		ctx("SHOP A", "-100.00", 1),
		ctx("SHOP A", "100.05", 2),
	})
	assert.Empty(t, pairs)
}

func TestDetectSimilarButNotIdenticalDescriptions(t *testing.T) {
	d := NewDetector()

	// Same merchant, slightly different suffix: containment match.
	_, pairs := d.Detect([]model.ClassifiedTransaction{
		ctx("UBER TRIP AKL", "-36.20", 3),
		ctx("UBER TRIP AKL HELP.UBER.COM", "36.20", 5),
	})
	require.Len(t, pairs, 1)

	// Unrelated descriptions never pair, even with matching amounts.
	_, pairs = d.Detect([]model.ClassifiedTransaction{
		ctx("COUNTDOWN PONSONBY", "-36.20", 3),
		ctx("BP CONNECT GREENLANE", "36.20", 5),
	})
	assert.Empty(t, pairs)
}

func TestDetectGreedyEarliestFirst(t *testing.T) {
	d := NewDetector()

	// Two candidate credits: the earliest wins, the later one survives.
	valid, pairs := d.Detect([]model.ClassifiedTransaction{
		ctx("SHOP A", "-100.00", 1),
		ctx("SHOP A", "100.00", 2),
		ctx("SHOP A", "100.00", 6),
	})
	require.Len(t, pairs, 1)
	assert.Equal(t, 2, pairs[0].Credit.Date.Day())
	require.Len(t, valid, 1)
	assert.Equal(t, 6, valid[0].Date.Day())
}

func TestDetectMatchesOnMerchant(t *testing.T) {
	d := NewDetector()

	a := ctx("EFTPOS 00123", "-42.00", 1)
	a.Merchant = "Glassons Newmarket"
	b := ctx("CREDIT 99881", "42.00", 3)
	b.Merchant = "Glassons Newmarket"

	_, pairs := d.Detect([]model.ClassifiedTransaction{a, b})
	require.Len(t, pairs, 1)
}
