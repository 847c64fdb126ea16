package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatMonthKey returns a month key like "2025-01".
func FormatMonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseMonthKey parses "2025-01" into year and month.
func ParseMonthKey(key string) (year, month int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid month key format: %q", key)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in month key %q: %w", key, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month in month key %q: %w", key, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range in month key %q", key)
	}

	return year, month, nil
}

// CurrentMonthKey returns the month key for the given instant.
func CurrentMonthKey(now time.Time) string {
	return FormatMonthKey(now.Year(), int(now.Month()))
}
