package categorize

import (
	"strings"

	"github.com/gajana-dev/gajana/internal/model"
)

// Summary reports the outcome of a categorization pass.
type Summary struct {
	Processed     int
	Categorized   int
	Uncategorized int
	NoRules       bool
}

// Categorizer applies rules in order; the first matching rule wins.
type Categorizer struct {
	rules []Rule
}

func New(rules []Rule) *Categorizer {
	return &Categorizer{rules: rules}
}

// Categorize sets the Category of every transaction in place. Transactions
// that match no rule get model.DefaultCategory.
func (c *Categorizer) Categorize(txns []model.Transaction) Summary {
	s := Summary{Processed: len(txns), NoRules: len(c.rules) == 0}
	for i := range txns {
		txns[i].Category = model.DefaultCategory
		if rule, ok := c.Match(txns[i]); ok {
			txns[i].Category = rule.Category
			s.Categorized++
		} else {
			s.Uncategorized++
		}
	}
	return s
}

// Match returns the first rule that applies to txn.
func (c *Categorizer) Match(txn model.Transaction) (Rule, bool) {
	debit := txn.IsDebit()
	desc := strings.ToLower(txn.Description)
	account := strings.ToLower(txn.Account)

	for _, rule := range c.rules {
		if rule.Debit != nil && *rule.Debit != debit {
			continue
		}
		if rule.Account != "" && !strings.Contains(account, strings.ToLower(rule.Account)) {
			continue
		}
		for _, p := range rule.Patterns {
			if p.Match(desc) {
				return rule, true
			}
		}
	}
	return Rule{}, false
}
