package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC)
}

func testNormalizer() *DateNormalizer {
	return &DateNormalizer{Now: fixedClock, DayFirst: true}
}

func TestNormalizeDateDayFirst(t *testing.T) {
	n := testNormalizer()

	d, warn := n.Normalize("30/06/2025", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2025-06-30", d.Format("2006-01-02"))

	d, warn = n.Normalize("03/04/2024", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2024-04-03", d.Format("2006-01-02"), "ambiguous dates read day-first")
}

func TestNormalizeDateFirstComponentOverTwelve(t *testing.T) {
	n := &DateNormalizer{Now: fixedClock, DayFirst: false}
	d, warn := n.Normalize("25/12/2024", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2024-12-25", d.Format("2006-01-02"), "25 cannot be a month")
}

func TestNormalizeDateISO(t *testing.T) {
	n := testNormalizer()
	d, warn := n.Normalize("2025-06-30", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2025-06-30", d.Format("2006-01-02"))
}

func TestNormalizeDateTwoDigitYearPivot(t *testing.T) {
	n := testNormalizer()

	d, warn := n.Normalize("15/03/24", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2024-03-15", d.Format("2006-01-02"))

	d, warn = n.Normalize("15/03/85", 1)
	require.Nil(t, warn)
	assert.Equal(t, "1985-03-15", d.Format("2006-01-02"), "85 is past the +50 pivot")
}

func TestNormalizeDateCompact(t *testing.T) {
	n := testNormalizer()

	d, warn := n.Normalize("25122024", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2024-12-25", d.Format("2006-01-02"))

	d, warn = n.Normalize("20241225", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2024-12-25", d.Format("2006-01-02"))
}

func TestNormalizeDateRejectsImpossible(t *testing.T) {
	n := testNormalizer()

	d, warn := n.Normalize("32/13/2025", 7)
	require.NotNil(t, warn)
	assert.Equal(t, 7, warn.Line)
	assert.Equal(t, "date", warn.Field)
	assert.Equal(t, "2025-07-15", d.Format("2006-01-02"), "falls back to today")

	// 31 April does not exist; the swapped reading (April 31 -> no,
	// 31/04 as month 4 day 31) fails both ways.
	_, warn = n.Normalize("31/04/2025", 1)
	assert.NotNil(t, warn)
}

func TestNormalizeDateGenericFallback(t *testing.T) {
	n := testNormalizer()
	d, warn := n.Normalize("5 Mar 2024", 1)
	require.Nil(t, warn)
	assert.Equal(t, "2024-03-05", d.Format("2006-01-02"))
}

func TestNormalizeDateGibberish(t *testing.T) {
	n := testNormalizer()
	d, warn := n.Normalize("not a date", 3)
	require.NotNil(t, warn)
	assert.Contains(t, warn.Message, "unparseable")
	assert.Equal(t, fixedClock().Format("2006-01-02"), d.Format("2006-01-02"))
}
