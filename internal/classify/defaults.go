package classify

import "github.com/bankfeed-dev/bankfeed/internal/model"

// Confidence levels assigned by the default table.
const (
	reversalConfidence     = 0.95
	transferConfidence     = 0.9
	matchedConfidence      = 0.85
	unclassifiedConfidence = 0.3
)

// DefaultRules returns the built-in compiled rule table.
func DefaultRules() RuleSet {
	rs := RuleSet{
		Reversal: []Rule{
			{
				Name:     "reversal-language",
				Category: model.CategoryReversal,
				Keywords: []string{
					"refund", "reversal", "reversed", "chargeback",
					"charge back", "dispute", "void", "correction",
					"declined rev", "txn reversal",
				},
				Confidence: reversalConfidence,
			},
		},
		Transfer: []Rule{
			{
				Name:     "explicit-transfer",
				Category: model.CategoryTransfer,
				Keywords: []string{
					"transfer", "internal txn", "between accounts",
					"to own account", "ib funds", "automatic payment",
				},
				Patterns:   []string{`\btfr\b`, `\bxfer\b`, `\ba/?p\b`},
				Confidence: transferConfidence,
			},
		},
		// Weak hints: only classify as transfer together with the
		// round-amount heuristic.
		TransferHints: []string{
			"savings", "term deposit", "investment acct", "brokerage",
			"sweep",
		},
		Income: []Rule{
			{
				Name:        "salary",
				Category:    model.CategoryIncome,
				Subcategory: model.SubSalary,
				BudgetGroup: "Income",
				Keywords:    []string{"salary", "payroll", "wages", "fortnightly pay", "monthly pay"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "government",
				Category:    model.CategoryIncome,
				Subcategory: model.SubGovernment,
				BudgetGroup: "Income",
				Keywords: []string{
					"ird", "winz", "work and income", "working for families",
					"benefit", "pension", "superannuation", "student allowance",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "investment-income",
				Category:    model.CategoryIncome,
				Subcategory: model.SubInvestment,
				BudgetGroup: "Income",
				Keywords:    []string{"dividend", "distribution", "interest paid", "interest credit"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "business-income",
				Category:    model.CategoryIncome,
				Subcategory: model.SubBusiness,
				BudgetGroup: "Income",
				Keywords:    []string{"invoice", "stripe payout", "paypal payout", "contract payment"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "rental-income",
				Category:    model.CategoryIncome,
				Subcategory: model.SubRental,
				BudgetGroup: "Income",
				Keywords:    []string{"rent received", "rental income", "tenant"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "other-income",
				Category:    model.CategoryIncome,
				Subcategory: model.SubOtherIncome,
				BudgetGroup: "Income",
				Keywords:    []string{"reimbursement", "cashback", "reward", "prize"},
				Confidence:  matchedConfidence,
			},
		},
		Expense: []Rule{
			{
				Name:        "housing",
				Category:    model.CategoryHousing,
				BudgetGroup: "Needs",
				Keywords:    []string{"rent", "mortgage", "landlord", "body corporate", "rates"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "groceries",
				Category:    model.CategoryGroceries,
				BudgetGroup: "Needs",
				Keywords: []string{
					"countdown", "new world", "pak n save", "paknsave",
					"woolworths", "four square", "fresh choice", "supermarket",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "fuel-transport",
				Category:    model.CategoryFuel,
				BudgetGroup: "Needs",
				Keywords: []string{
					"z energy", "caltex", "mobil", "gull", "fuel", "petrol",
					"at hop", "parking", "taxi", "uber trip",
				},
				Patterns:   []string{`\bbp\b`},
				Confidence: matchedConfidence,
			},
			{
				Name:        "dining",
				Category:    model.CategoryDining,
				BudgetGroup: "Wants",
				Keywords: []string{
					"mcdonald", "kfc", "burger", "cafe", "restaurant",
					"pizza", "sushi", "takeaway", "uber eats", "bakery",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "entertainment",
				Category:    model.CategoryEntertainment,
				BudgetGroup: "Wants",
				Keywords: []string{
					"netflix", "spotify", "cinema", "steam", "playstation",
					"ticketek", "event",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "healthcare",
				Category:    model.CategoryHealthcare,
				BudgetGroup: "Needs",
				Keywords: []string{
					"pharmacy", "chemist", "unichem", "doctor", "medical",
					"dental", "physio", "optometrist",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "utilities",
				Category:    model.CategoryUtilities,
				BudgetGroup: "Needs",
				Keywords: []string{
					"electricity", "contact energy", "mercury", "genesis",
					"vodafone", "spark", "2degrees", "broadband", "watercare",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "insurance",
				Category:    model.CategoryInsurance,
				BudgetGroup: "Needs",
				Keywords:    []string{"insurance", "aa insurance", "tower", "southern cross"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "subscriptions",
				Category:    model.CategorySubscriptions,
				BudgetGroup: "Wants",
				Keywords:    []string{"subscription", "membership", "patreon"},
				Confidence:  matchedConfidence,
			},
			{
				Name:        "shopping",
				Category:    model.CategoryShopping,
				BudgetGroup: "Wants",
				Keywords: []string{
					"warehouse", "kmart", "farmers", "amazon", "briscoes",
					"mitre 10", "bunnings", "trade me",
				},
				Confidence: matchedConfidence,
			},
			{
				Name:        "bank-fees",
				Category:    model.CategoryBankFees,
				BudgetGroup: "Needs",
				Keywords:    []string{"account fee", "monthly fee", "overdraft", "interest charged", "card fee"},
				Confidence:  matchedConfidence,
			},
		},
	}

	// Default patterns are static; a compile failure is a programming error.
	if err := rs.Compile(); err != nil {
		panic(err)
	}
	return rs
}
