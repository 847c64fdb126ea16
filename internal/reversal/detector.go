// Package reversal finds offsetting debit/credit pairs that rule-based
// classification missed, such as a purchase and its later refund posted
// without reversal language.
package reversal

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Detector pairs transactions whose amounts offset within a date window and
// whose descriptions match closely enough. Matching is greedy and
// earliest-first; each transaction joins at most one pair.
type Detector struct {
	Window              time.Duration
	AmountTolerance     decimal.Decimal
	SimilarityThreshold float64
}

// NewDetector returns a detector with the standard window and thresholds.
func NewDetector() *Detector {
	return &Detector{
		Window:              14 * 24 * time.Hour,
		AmountTolerance:     decimal.RequireFromString("0.01"),
		SimilarityThreshold: 0.8,
	}
}

// Detect scans date-ascending for reversal pairs. It returns the surviving
// transactions (date-sorted) and the pairs found; paired transactions are
// excluded from the surviving set.
func (d *Detector) Detect(txs []model.ClassifiedTransaction) ([]model.ClassifiedTransaction, []model.ReversalPair) {
	sorted := make([]model.ClassifiedTransaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	visited := make([]bool, len(sorted))
	var pairs []model.ReversalPair

	for i := range sorted {
		if visited[i] {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if visited[j] {
				continue
			}
			if sorted[j].Date.Sub(sorted[i].Date) > d.Window {
				break
			}
			if !d.isPair(sorted[i], sorted[j]) {
				continue
			}

			visited[i], visited[j] = true, true
			pairs = append(pairs, makePair(sorted[i], sorted[j]))
			break
		}
	}

	var valid []model.ClassifiedTransaction
	for i, tx := range sorted {
		if !visited[i] {
			valid = append(valid, tx)
		}
	}
	return valid, pairs
}

func (d *Detector) isPair(a, b model.ClassifiedTransaction) bool {
	if a.RawSign.Sign() == b.RawSign.Sign() || a.RawSign.IsZero() || b.RawSign.IsZero() {
		return false
	}
	diff := a.RawSign.Abs().Sub(b.RawSign.Abs()).Abs()
	if diff.GreaterThanOrEqual(d.AmountTolerance) {
		return false
	}

	if d.textMatches(a.Description, b.Description) {
		return true
	}
	if a.Merchant != "" && b.Merchant != "" && d.textMatches(a.Merchant, b.Merchant) {
		return true
	}
	return false
}

// textMatches compares alphanumeric-only lowercased text: containment in
// either direction counts, otherwise normalized Levenshtein similarity must
// exceed the threshold.
func (d *Detector) textMatches(a, b string) bool {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return similarity(na, nb) > d.SimilarityThreshold
}

// similarity is 1 - dist/maxLen over runes.
func similarity(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func normalizeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

// makePair orients the pair as debit (money out) and credit (money in).
func makePair(a, b model.ClassifiedTransaction) model.ReversalPair {
	if a.RawSign.IsNegative() {
		return model.ReversalPair{Debit: a, Credit: b}
	}
	return model.ReversalPair{Debit: b, Credit: a}
}
