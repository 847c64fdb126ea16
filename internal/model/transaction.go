package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a coarse classification bucket for a transaction.
type Category string

const (
	CategoryIncome   Category = "Income"
	CategoryTransfer Category = "Transfer"
	CategoryReversal Category = "Reversal"
	CategoryOther    Category = "Other"

	CategoryHousing       Category = "Housing"
	CategoryGroceries     Category = "Groceries"
	CategoryFuel          Category = "Fuel & Transport"
	CategoryDining        Category = "Dining"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategoryShopping      Category = "Shopping"
	CategoryUtilities     Category = "Utilities"
	CategorySubscriptions Category = "Subscriptions"
	CategoryInsurance     Category = "Insurance"
	CategoryBankFees      Category = "Bank Fees"
)

// Income and fallback subcategories. Expense subcategories use free-form
// strings from the rule table.
const (
	SubSalary             = "SALARY"
	SubGovernment         = "GOVERNMENT"
	SubInvestment         = "INVESTMENT"
	SubBusiness           = "BUSINESS"
	SubRental             = "RENTAL"
	SubOtherIncome        = "OTHER_INCOME"
	SubUnclassifiedCredit = "UNCLASSIFIED_CREDIT"
	SubUnclassifiedDebit  = "UNCLASSIFIED_DEBIT"
)

// Transaction is one normalized bank transaction. Amount is always the
// absolute value; the original signed amount is kept in RawSign.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Merchant    string
	Account     string
	RawSign     decimal.Decimal
}

// MonthKey returns the transaction's "YYYY-MM" grouping key.
func (t Transaction) MonthKey() string {
	return FormatMonthKey(t.Date.Year(), int(t.Date.Month()))
}

// ClassifiedTransaction is a Transaction with its classification attached.
// At most one of IsIncome/IsExpense/IsTransfer/IsReversal is true; all four
// false means Other/unclassified.
type ClassifiedTransaction struct {
	Transaction

	Category    Category
	Subcategory string
	BudgetGroup string
	IsIncome    bool
	IsExpense   bool
	IsTransfer  bool
	IsReversal  bool
	IsIgnored   bool
	Confidence  float64
	MonthYear   string
}

// ReversalPair is a debit/credit pair that offsets to zero. Both sides are
// excluded from aggregation.
type ReversalPair struct {
	Debit  ClassifiedTransaction
	Credit ClassifiedTransaction
}
