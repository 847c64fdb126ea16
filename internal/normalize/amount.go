package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

var (
	debitMarker  = regexp.MustCompile(`\b(DR|DEBIT)\b`)
	creditMarker = regexp.MustCompile(`\b(CR|CREDIT)\b`)
)

// NormalizeAmount parses an amount cell into a signed decimal. Negative
// values are recognized as parenthesized, minus-prefixed, or DR/DEBIT
// marked. On failure it returns zero and a warning; it never errors for a
// single row.
func NormalizeAmount(cell string, line int) (decimal.Decimal, *model.Warning) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, &model.Warning{Line: line, Field: "amount", Message: "empty amount cell, defaulted to 0"}
	}

	negative := false
	upper := strings.ToUpper(s)

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		upper = strings.ToUpper(s)
	}
	if debitMarker.MatchString(upper) {
		negative = true
	}
	// An explicit credit marker clears an earlier debit guess but never
	// flips a minus sign.
	if creditMarker.MatchString(upper) && !strings.Contains(s, "-") {
		negative = false
	}

	cleaned := stripToNumber(s)
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}

	cleaned = resolveSeparators(cleaned)
	if cleaned == "" {
		return decimal.Zero, &model.Warning{
			Line:    line,
			Field:   "amount",
			Message: fmt.Sprintf("unparseable amount %q, defaulted to 0", cell),
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &model.Warning{
			Line:    line,
			Field:   "amount",
			Message: fmt.Sprintf("unparseable amount %q, defaulted to 0", cell),
		}
	}

	if negative {
		d = d.Neg()
	}
	return d, nil
}

// stripToNumber drops currency symbols, letters and whitespace, keeping
// digits, separators and a leading minus.
func stripToNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveSeparators disambiguates comma and dot: with both present commas
// are thousands separators; with only commas, a final group of at most two
// digits reads as the decimal part.
func resolveSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		return strings.ReplaceAll(s, ",", "")
	case hasComma:
		last := strings.LastIndex(s, ",")
		if len(s)-last-1 <= 2 {
			// Decimal comma: drop any grouping commas before it.
			head := strings.ReplaceAll(s[:last], ",", "")
			return head + "." + s[last+1:]
		}
		return strings.ReplaceAll(s, ",", "")
	default:
		return s
	}
}
