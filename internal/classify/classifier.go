package classify

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Metadata carries bank-provided hints about a transaction. TypeCode is the
// bank's transaction type column when the export has one.
type Metadata struct {
	TypeCode string
}

// transferTypeCodes are bank type codes that mark internal transfers.
var transferTypeCodes = map[string]bool{
	"TFR":      true,
	"TRF":      true,
	"TRANSFER": true,
}

// roundTransferFloor is the minimum absolute amount for the round-amount
// transfer heuristic.
var roundTransferFloor = decimal.NewFromInt(1000)

var (
	hundred     = decimal.NewFromInt(100)
	fiveHundred = decimal.NewFromInt(500)
)

// Classifier is a pure, deterministic rule evaluator. It holds only the
// immutable rule table and is safe for concurrent use.
type Classifier struct {
	rules RuleSet
}

// New creates a classifier over a compiled rule set.
func New(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefault creates a classifier over the built-in rule table.
func NewDefault() *Classifier {
	return New(DefaultRules())
}

// Classify assigns a category to one transaction. Rules run strictly in
// order: reversal, transfer, then the income or expense table depending on
// the sign of the raw amount. It never fails; unmatched input resolves to a
// low-confidence Other classification.
func (c *Classifier) Classify(tx model.Transaction, meta Metadata) model.ClassifiedTransaction {
	out := model.ClassifiedTransaction{
		Transaction: tx,
		MonthYear:   tx.MonthKey(),
	}
	out.Amount = tx.RawSign.Abs()

	text := normalizeText(tx.Description, tx.Merchant)

	if rule := firstMatch(c.rules.Reversal, text); rule != nil {
		out.Category = model.CategoryReversal
		out.IsReversal = true
		out.IsIgnored = true
		out.Confidence = rule.Confidence
		return out
	}

	if ok, conf := c.matchTransfer(text, tx.RawSign, meta); ok {
		out.Category = model.CategoryTransfer
		out.IsTransfer = true
		out.IsIgnored = true
		out.Confidence = conf
		return out
	}

	if tx.RawSign.IsPositive() {
		if rule := firstMatch(c.rules.Income, text); rule != nil {
			out.Category = rule.Category
			out.Subcategory = rule.Subcategory
			out.BudgetGroup = rule.BudgetGroup
			out.IsIncome = true
			out.Confidence = rule.Confidence
			return out
		}
		// Unmatched credits are deliberately NOT counted as income.
		out.Category = model.CategoryOther
		out.Subcategory = model.SubUnclassifiedCredit
		out.IsIgnored = true
		out.Confidence = unclassifiedConfidence
		return out
	}

	if rule := firstMatch(c.rules.Expense, text); rule != nil {
		out.Category = rule.Category
		out.Subcategory = rule.Subcategory
		out.BudgetGroup = rule.BudgetGroup
		out.IsExpense = true
		out.Confidence = rule.Confidence
		return out
	}

	out.Category = model.CategoryOther
	out.Subcategory = model.SubUnclassifiedDebit
	out.IsIgnored = true
	out.Confidence = unclassifiedConfidence
	return out
}

// matchTransfer applies the three transfer tests in order: explicit rule
// patterns, bank metadata markers, then the conservative round-amount
// heuristic. Round amounts alone are never sufficient.
func (c *Classifier) matchTransfer(text string, amount decimal.Decimal, meta Metadata) (bool, float64) {
	if rule := firstMatch(c.rules.Transfer, text); rule != nil {
		return true, rule.Confidence
	}

	if transferTypeCodes[strings.ToUpper(strings.TrimSpace(meta.TypeCode))] {
		return true, transferConfidence
	}

	abs := amount.Abs()
	if abs.GreaterThan(roundTransferFloor) && isRoundMultiple(abs) {
		for _, hint := range c.rules.TransferHints {
			if strings.Contains(text, hint) {
				return true, transferConfidence
			}
		}
	}

	return false, 0
}

func isRoundMultiple(abs decimal.Decimal) bool {
	return abs.Mod(hundred).IsZero() || abs.Mod(fiveHundred).IsZero()
}

func firstMatch(rules []Rule, text string) *Rule {
	for i := range rules {
		if rules[i].Matches(text) {
			return &rules[i]
		}
	}
	return nil
}

var collapseSpaces = regexp.MustCompile(`\s+`)

func normalizeText(description, merchant string) string {
	joined := strings.ToLower(strings.TrimSpace(description + " " + merchant))
	return collapseSpaces.ReplaceAllString(joined, " ")
}
