// Package dedupe suppresses re-submission of previously stored transactions
// via content signatures.
package dedupe

import (
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Signature returns the content key for one transaction:
// date + "-" + absolute amount + "-" + normalized description + "-" +
// normalized merchant. The amount is fixed to two decimal places so equal
// values always produce equal keys.
func Signature(tx model.Transaction) string {
	return strings.Join([]string{
		tx.Date.Format("2006-01-02"),
		tx.RawSign.Abs().StringFixed(2),
		normalize(tx.Description),
		normalize(tx.Merchant),
	}, "-")
}

// Filter drops transactions whose signature already exists. Duplicates
// within the batch itself are also dropped (the first occurrence wins).
func Filter(txs []model.ClassifiedTransaction, existing map[string]struct{}) (kept, dropped []model.ClassifiedTransaction) {
	seen := make(map[string]struct{}, len(existing)+len(txs))
	for sig := range existing {
		seen[sig] = struct{}{}
	}

	for _, tx := range txs {
		sig := Signature(tx.Transaction)
		if _, dup := seen[sig]; dup {
			dropped = append(dropped, tx)
			continue
		}
		seen[sig] = struct{}{}
		kept = append(kept, tx)
	}
	return kept, dropped
}

// normalize lowercases and strips non-alphanumeric characters.
func normalize(s string) string {
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
