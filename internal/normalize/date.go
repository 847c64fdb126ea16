// Package normalize converts raw CSV cell text into calendar dates and
// signed decimal amounts. Both normalizers follow the row-level best-effort
// policy: they never fail, they return a default plus an explicit warning.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// DateNormalizer parses inconsistently formatted date cells. DayFirst
// controls how ambiguous numeric dates like 03/04/2024 are read; bank
// exports in this locale are day-first.
type DateNormalizer struct {
	Now      func() time.Time
	DayFirst bool
}

// NewDateNormalizer returns a day-first normalizer on the real clock.
func NewDateNormalizer() *DateNormalizer {
	return &DateNormalizer{Now: time.Now, DayFirst: true}
}

var (
	numericDate = regexp.MustCompile(`^(\d{1,4})[-/.](\d{1,2})[-/.](\d{1,4})$`)
	digitsOnly  = regexp.MustCompile(`^\d{8}$`)
)

// genericLayouts are the terminal structured attempts before the today
// fallback.
var genericLayouts = []string{
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Normalize parses cell into a calendar date. On failure it returns today's
// date and a warning; it never errors for a single row.
func (n *DateNormalizer) Normalize(cell string, line int) (time.Time, *model.Warning) {
	s := cleanDateCell(cell)
	if s == "" {
		return n.today(), &model.Warning{Line: line, Field: "date", Message: "empty date cell, defaulted to today"}
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		if d, ok := n.parseNumericParts(m[1], m[2], m[3]); ok {
			return d, nil
		}
	}

	if digitsOnly.MatchString(s) {
		if d, ok := n.parseCompactDigits(s); ok {
			return d, nil
		}
	}

	for _, layout := range genericLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return dateOnly(d), nil
		}
	}

	return n.today(), &model.Warning{
		Line:    line,
		Field:   "date",
		Message: fmt.Sprintf("unparseable date %q, defaulted to today", cell),
	}
}

// parseNumericParts handles separator-delimited dates: YYYY-MM-DD when the
// first component is 4 digits, otherwise DD/MM/YYYY or DD/MM/YY. A first
// component over 12 always reads as the day; otherwise DayFirst decides,
// with the swapped reading as a validity rescue.
func (n *DateNormalizer) parseNumericParts(a, b, c string) (time.Time, bool) {
	av, _ := strconv.Atoi(a)
	bv, _ := strconv.Atoi(b)
	cv, _ := strconv.Atoi(c)

	if len(a) == 4 {
		return makeDate(av, bv, cv)
	}
	if len(c) == 2 {
		cv = n.pivotYear(cv)
	} else if len(c) != 4 {
		return time.Time{}, false
	}

	day, month := av, bv
	if av <= 12 && !n.DayFirst {
		day, month = bv, av
	}
	if d, ok := makeDate(cv, month, day); ok {
		return d, true
	}
	// The preferred reading produced an impossible date; try the swap.
	if d, ok := makeDate(cv, day, month); ok {
		return d, true
	}
	return time.Time{}, false
}

// parseCompactDigits handles DDMMYYYY and YYYYMMDD. An 8-digit run starting
// with a plausible year reads year-first; both readings are validated.
func (n *DateNormalizer) parseCompactDigits(s string) (time.Time, bool) {
	first4, _ := strconv.Atoi(s[:4])
	if first4 >= 1900 && first4 <= 2100 {
		mv, _ := strconv.Atoi(s[4:6])
		dv, _ := strconv.Atoi(s[6:8])
		if d, ok := makeDate(first4, mv, dv); ok {
			return d, true
		}
	}

	dv, _ := strconv.Atoi(s[:2])
	mv, _ := strconv.Atoi(s[2:4])
	yv, _ := strconv.Atoi(s[4:8])
	return makeDate(yv, mv, dv)
}

// pivotYear maps a 2-digit year into 19xx/20xx, staying within ±50 years
// of now.
func (n *DateNormalizer) pivotYear(yy int) int {
	year := 2000 + yy
	if year > n.Now().Year()+50 {
		year -= 100
	}
	return year
}

func (n *DateNormalizer) today() time.Time {
	return dateOnly(n.Now())
}

// makeDate builds a UTC date and verifies the day/month/year round-trip,
// rejecting overflows like 31 in a 30-day month.
func makeDate(year, month, day int) (time.Time, bool) {
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cleanDateCell(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
