// Package classify assigns transactions to income/expense/transfer/reversal
// buckets with a declarative, ordered rule table. Rule precedence is data,
// not code: reversal rules run before transfer rules, transfer before
// income/expense, and within a group the first match wins.
package classify

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Rule is one row of the rule table. Keywords match by containment on the
// normalized text; Patterns are regular expressions for cases where
// containment is too loose.
type Rule struct {
	Name        string         `yaml:"name"`
	Category    model.Category `yaml:"category"`
	Subcategory string         `yaml:"subcategory,omitempty"`
	BudgetGroup string         `yaml:"budget_group,omitempty"`
	Keywords    []string       `yaml:"keywords,omitempty"`
	Patterns    []string       `yaml:"patterns,omitempty"`
	Confidence  float64        `yaml:"confidence"`

	compiled []*regexp.Regexp
}

// Matches reports whether the rule matches the normalized transaction text.
func (r *Rule) Matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, re := range r.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// RuleSet is the full ordered rule table, grouped by evaluation phase.
type RuleSet struct {
	Reversal []Rule `yaml:"reversal"`
	Transfer []Rule `yaml:"transfer"`
	// TransferHints are weak transfer keywords consulted only by the
	// round-amount heuristic; they never classify on their own.
	TransferHints []string `yaml:"transfer_hints,omitempty"`
	Income        []Rule   `yaml:"income"`
	Expense       []Rule   `yaml:"expense"`
}

// Compile builds the rule regexps. Must be called before classification;
// LoadRules and DefaultRules return compiled sets.
func (rs *RuleSet) Compile() error {
	for _, group := range [][]Rule{rs.Reversal, rs.Transfer, rs.Income, rs.Expense} {
		for i := range group {
			rule := &group[i]
			rule.compiled = rule.compiled[:0]
			for _, p := range rule.Patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					return fmt.Errorf("rule %q: compiling pattern %q: %w", rule.Name, p, err)
				}
				rule.compiled = append(rule.compiled, re)
			}
		}
	}
	return nil
}

// LoadRules reads and compiles a rule table from a YAML file.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("reading rules: %w", err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parsing rules: %w", err)
	}
	if err := rs.Compile(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// SaveRules writes a rule table to a YAML file.
func SaveRules(path string, rs RuleSet) error {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}
