// Package columns resolves CSV headers to the semantic transaction fields
// (date, description, amount) by fuzzy name matching with positional
// fallbacks for exports with unhelpful headers.
package columns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Field identifies one semantic transaction field.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
)

// RequiredFields must all resolve for a mapping to be usable.
var RequiredFields = []Field{FieldDate, FieldDescription, FieldAmount}

// Match binds a field to a column with a confidence score in [0,1].
type Match struct {
	Index      int
	Confidence float64
}

// Mapping maps each resolved field to its column.
type Mapping map[Field]Match

// MappingError reports required fields that could not be resolved.
type MappingError struct {
	Missing []Field
}

func (e *MappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("cannot resolve required column(s): %s", strings.Join(names, ", "))
}

const (
	// fuzzyFloor is the name-match confidence below which positional
	// fallbacks are consulted.
	fuzzyFloor = 0.5
	// acceptFloor is the minimum confidence for any match to count.
	acceptFloor = 0.3
	// fallbackConfidence is assigned to positional fallback matches.
	fallbackConfidence = 0.4
)

var defaultSynonyms = map[Field][]string{
	FieldDate: {
		"date", "transaction date", "value date", "posted date",
		"processed date", "tran date",
	},
	FieldDescription: {
		"description", "details", "particulars", "narrative", "memo",
		"payee", "transaction details", "merchant", "reference",
	},
	FieldAmount: {
		"amount", "value", "transaction amount", "debit", "credit",
		"amount nzd", "net amount",
	},
}

// Map resolves the required fields against headers. sample rows (may be
// empty) feed the positional fallbacks; hint is an optional filename used to
// bias bank-specific synonyms. Fails with *MappingError when any required
// field stays below the acceptance floor.
func Map(headers []string, sample [][]string, hint string) (Mapping, error) {
	synonyms := synonymsForHint(hint)

	mapping := make(Mapping, len(RequiredFields))
	used := make(map[int]bool)

	for _, field := range RequiredFields {
		best := bestNameMatch(headers, synonyms[field], used)
		if best.Confidence < fuzzyFloor {
			if fb, ok := positionalFallback(field, headers, sample, used); ok && fb.Confidence > best.Confidence {
				best = fb
			}
		}
		if best.Confidence >= acceptFloor {
			mapping[field] = best
			used[best.Index] = true
		}
	}

	var missing []Field
	for _, field := range RequiredFields {
		if _, ok := mapping[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &MappingError{Missing: missing}
	}
	return mapping, nil
}

// bestNameMatch runs the match ladder for one field over all unused columns:
// exact normalized match, substring containment (both directions, scaled by
// length ratio), then token overlap for compound headers.
func bestNameMatch(headers []string, synonyms []string, used map[int]bool) Match {
	best := Match{Index: -1}

	for idx, header := range headers {
		if used[idx] {
			continue
		}
		name := normalizeName(header)
		if name == "" {
			continue
		}

		for _, syn := range synonyms {
			score := nameScore(name, normalizeName(syn))
			if score > best.Confidence {
				best = Match{Index: idx, Confidence: score}
			}
		}
	}

	return best
}

func nameScore(name, syn string) float64 {
	if name == syn {
		return 1.0
	}
	if strings.Contains(name, syn) {
		return 0.9 * float64(len(syn)) / float64(len(name))
	}
	if strings.Contains(syn, name) {
		return 0.8 * float64(len(name)) / float64(len(syn))
	}

	// Token overlap for compound headers like "transaction value date".
	nameTokens := tokens(name)
	synTokens := tokens(syn)
	if len(nameTokens) == 0 || len(synTokens) == 0 {
		return 0
	}
	overlap := 0
	for _, st := range synTokens {
		for _, nt := range nameTokens {
			if st == nt {
				overlap++
				break
			}
		}
	}
	if overlap == 0 {
		return 0
	}
	return 0.7 * float64(overlap) / float64(max(len(nameTokens), len(synTokens)))
}

var dateLikeCell = regexp.MustCompile(`^\d{1,4}[-/.]?\d{1,2}[-/.]?\d{1,4}$`)
var currencyLikeCell = regexp.MustCompile(`^[-($]*[\d,.]+\)?\s*(?:CR|DR)?$`)

// positionalFallback guesses a column by position and cell shape when names
// fail: dates in the first three columns, descriptions in the middle with the
// longest text, amounts scanned from the right for currency-shaped cells.
func positionalFallback(field Field, headers []string, sample [][]string, used map[int]bool) (Match, bool) {
	switch field {
	case FieldDate:
		limit := min(3, len(headers))
		for idx := 0; idx < limit; idx++ {
			if used[idx] {
				continue
			}
			if columnMatches(sample, idx, func(cell string) bool {
				return dateLikeCell.MatchString(strings.TrimSpace(cell))
			}) {
				return Match{Index: idx, Confidence: fallbackConfidence}, true
			}
		}

	case FieldDescription:
		// Longest average cell text wins, preferring middle columns.
		type scored struct {
			idx int
			avg float64
		}
		var candidates []scored
		for idx := range headers {
			if used[idx] || idx == 0 || idx == len(headers)-1 {
				continue
			}
			total, n := 0, 0
			for _, row := range sample {
				if idx < len(row) {
					total += len(row[idx])
					n++
				}
			}
			if n > 0 && total > 0 {
				candidates = append(candidates, scored{idx: idx, avg: float64(total) / float64(n)})
			}
		}
		if len(candidates) > 0 {
			sort.Slice(candidates, func(i, j int) bool { return candidates[i].avg > candidates[j].avg })
			return Match{Index: candidates[0].idx, Confidence: fallbackConfidence}, true
		}

	case FieldAmount:
		for idx := len(headers) - 1; idx >= 0; idx-- {
			if used[idx] {
				continue
			}
			if columnMatches(sample, idx, func(cell string) bool {
				c := strings.ToUpper(strings.TrimSpace(cell))
				return c != "" && currencyLikeCell.MatchString(c) && strings.ContainsAny(c, "0123456789")
			}) {
				return Match{Index: idx, Confidence: fallbackConfidence}, true
			}
		}
	}

	return Match{Index: -1}, false
}

// columnMatches reports whether every non-empty sampled cell in the column
// satisfies pred, with at least one non-empty cell seen.
func columnMatches(sample [][]string, idx int, pred func(string) bool) bool {
	seen := 0
	for _, row := range sample {
		if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
			continue
		}
		if !pred(row[idx]) {
			return false
		}
		seen++
	}
	return seen > 0
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func tokens(s string) []string {
	return strings.Fields(s)
}
