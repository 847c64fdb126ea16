package classify

import (
	"fmt"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// ValidationError describes a single invariant violation on a classified
// transaction.
type ValidationError struct {
	Invariant   int
	Index       int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [tx %d]: %s", e.Invariant, e.Index, e.Description)
}

// Validate enforces 4 invariants on a set of classified transactions.
func Validate(txs []model.ClassifiedTransaction) []ValidationError {
	var errs []ValidationError

	for i, tx := range txs {
		// Invariant 1: at most one classification flag is set.
		flags := 0
		for _, f := range []bool{tx.IsIncome, tx.IsExpense, tx.IsTransfer, tx.IsReversal} {
			if f {
				flags++
			}
		}
		if flags > 1 {
			errs = append(errs, ValidationError{
				Invariant:   1,
				Index:       i,
				Description: fmt.Sprintf("%d classification flags set", flags),
			})
		}

		// Invariant 2: IsIgnored tracks transfers, reversals and
		// unclassified Other rows exactly.
		wantIgnored := tx.IsTransfer || tx.IsReversal ||
			(tx.Category == model.CategoryOther && !tx.IsIncome && !tx.IsExpense)
		if tx.IsIgnored != wantIgnored {
			errs = append(errs, ValidationError{
				Invariant:   2,
				Index:       i,
				Description: fmt.Sprintf("IsIgnored=%v, expected %v", tx.IsIgnored, wantIgnored),
			})
		}

		// Invariant 3: stored amount is the absolute value.
		if tx.Amount.IsNegative() {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Index:       i,
				Description: fmt.Sprintf("negative stored amount %s", tx.Amount),
			})
		}

		// Invariant 4: MonthYear agrees with the date.
		if tx.MonthYear != tx.MonthKey() {
			errs = append(errs, ValidationError{
				Invariant:   4,
				Index:       i,
				Description: fmt.Sprintf("month key %q does not match date %s", tx.MonthYear, tx.Date.Format("2006-01-02")),
			})
		}
	}

	return errs
}
