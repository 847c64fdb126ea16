// Package csvparse turns raw bank CSV exports into header-aligned rows.
// It infers the cell separator and the header line rather than assuming a
// fixed export format, since real bank exports disagree on both.
package csvparse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when the input contains no non-empty lines.
var ErrEmptyInput = errors.New("empty input: no lines to parse")

// ErrNoHeader is returned when no usable header line exists in the first
// headerScanLimit non-empty lines.
var ErrNoHeader = errors.New("no header row found")

const (
	// separatorSampleSize is how many leading lines vote on the separator.
	separatorSampleSize = 5
	// headerScanLimit is how many leading lines are scanned for a header.
	headerScanLimit = 10
	// headerTermThreshold is the minimum number of header-vocabulary hits
	// for a line to qualify as the header.
	headerTermThreshold = 2
)

// separatorCandidates are scored in this order; comma is the default when
// no candidate qualifies.
var separatorCandidates = []rune{'\t', ',', ';', '|'}

// headerVocabulary holds lowercase terms that mark a cell as header-like.
var headerVocabulary = []string{
	"date", "amount", "description", "details", "debit", "credit",
	"balance", "reference", "code", "particulars", "transaction",
}

// SkippedRow records one body line that produced no row.
type SkippedRow struct {
	Line   int // 1-based line number in the original input
	Reason string
}

// Report carries parse validation metadata for one document.
type Report struct {
	Separator   rune
	HeaderIndex int // 0-based index into the non-empty lines
	TotalLines  int // count of non-empty lines
	DataRows    int
	Skipped     []SkippedRow
}

// RowWarning records a non-fatal shape fix applied to one row.
type RowWarning struct {
	Line    int
	Message string
}

// Document is the result of parsing one CSV export.
type Document struct {
	Headers  []string
	Rows     [][]string
	Report   Report
	Warnings []RowWarning
}

type line struct {
	num  int // 1-based position in the raw input
	text string
}

// Parse splits, tokenizes and aligns a raw CSV blob. It fails only on
// whole-file conditions (no input, no header); every row-level problem is
// resolved in place and recorded in the document's warnings or report.
func Parse(text string) (*Document, error) {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	sep := DetectSeparator(sampleTexts(lines, separatorSampleSize))

	headerIdx, headers, err := findHeader(lines, sep)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Headers: headers,
		Report: Report{
			Separator:   sep,
			HeaderIndex: headerIdx,
			TotalLines:  len(lines),
		},
	}

	width := len(headers)
	for _, ln := range lines[headerIdx+1:] {
		cells := Tokenize(ln.text, sep)
		if allEmpty(cells) {
			doc.Report.Skipped = append(doc.Report.Skipped, SkippedRow{
				Line:   ln.num,
				Reason: "row has no values",
			})
			continue
		}

		switch {
		case len(cells) < width:
			doc.Warnings = append(doc.Warnings, RowWarning{
				Line:    ln.num,
				Message: fmt.Sprintf("row padded from %d to %d cells", len(cells), width),
			})
			for len(cells) < width {
				cells = append(cells, "")
			}
		case len(cells) > width:
			// Trailing cells are dropped. Recorded so callers can surface
			// the data-loss risk.
			doc.Warnings = append(doc.Warnings, RowWarning{
				Line:    ln.num,
				Message: fmt.Sprintf("row truncated: %d cells beyond header width discarded", len(cells)-width),
			})
			cells = cells[:width]
		}

		doc.Rows = append(doc.Rows, cells)
	}

	doc.Report.DataRows = len(doc.Rows)
	return doc, nil
}

// DetectSeparator scores each candidate separator over the sample lines by
// average occurrences per line times occurrence consistency. Candidates
// averaging under one occurrence per line, or varying too much between
// lines, are discarded. Comma wins when nothing qualifies.
func DetectSeparator(sample []string) rune {
	best := ','
	bestScore := 0.0

	for _, cand := range separatorCandidates {
		minCount, maxCount, total := -1, 0, 0
		for _, s := range sample {
			n := strings.Count(s, string(cand))
			total += n
			if n > maxCount {
				maxCount = n
			}
			if minCount < 0 || n < minCount {
				minCount = n
			}
		}

		avg := float64(total) / float64(len(sample))
		if avg < 1 || maxCount == 0 {
			continue
		}
		consistency := 1 - float64(maxCount-minCount)/float64(maxCount)
		if consistency <= 0.5 {
			continue
		}

		if score := avg * consistency; score > bestScore {
			bestScore = score
			best = cand
		}
	}

	return best
}

// Tokenize splits one line on sep, honoring single and double quotes.
// A doubled quote character inside a quoted cell is an escaped literal.
// Cells are trimmed and stripped of zero-width characters.
func Tokenize(s string, sep rune) []string {
	var (
		cells   []string
		cell    strings.Builder
		quote   rune // 0 when outside quotes
		runes   = []rune(s)
		flushed = func() {
			cells = append(cells, cleanCell(cell.String()))
			cell.Reset()
		}
	)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0 && r == quote:
			if i+1 < len(runes) && runes[i+1] == quote {
				cell.WriteRune(quote)
				i++
				continue
			}
			quote = 0
		case quote != 0:
			cell.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
		case r == sep:
			flushed()
		default:
			cell.WriteRune(r)
		}
	}
	flushed()

	return cells
}

// cleanCell trims a cell and removes BOM and zero-width characters.
func cleanCell(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// findHeader scans the first headerScanLimit non-empty lines for one whose
// cells hit the header vocabulary at least headerTermThreshold times. When
// none qualifies, the first line stands in as the header.
func findHeader(lines []line, sep rune) (int, []string, error) {
	limit := len(lines)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		cells := Tokenize(lines[i].text, sep)
		hits := 0
		for _, c := range cells {
			if containsHeaderTerm(strings.ToLower(c)) {
				hits++
			}
		}
		if hits >= headerTermThreshold {
			return i, cells, nil
		}
	}

	fallback := Tokenize(lines[0].text, sep)
	if allEmpty(fallback) {
		return 0, nil, ErrNoHeader
	}
	return 0, fallback, nil
}

func containsHeaderTerm(cell string) bool {
	for _, term := range headerVocabulary {
		if strings.Contains(cell, term) {
			return true
		}
	}
	return false
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// nonEmptyLines splits on any newline style and keeps non-blank lines with
// their original 1-based numbers.
func nonEmptyLines(text string) []line {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var out []line
	for i, raw := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		out = append(out, line{num: i + 1, text: raw})
	}
	return out
}

func sampleTexts(lines []line, n int) []string {
	if len(lines) < n {
		n = len(lines)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = lines[i].text
	}
	return out
}
