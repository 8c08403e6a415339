package categorize

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/gajana-dev/gajana/internal/model"
)

const (
	minKeywordCount = 3
	maxKeywords     = 10
)

var wordRe = regexp.MustCompile(`\b[a-z0-9]{3,}\b`)

// Suggestion is a candidate rule learned from already categorized
// transactions. It marshals to the rule file format.
type Suggestion struct {
	Category string   `json:"category"`
	Keywords []string `json:"description"`
	Debit    bool     `json:"debit"`
}

// words returns the description words of three or more alphanumerics that
// are not purely numeric.
func words(description string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(description), -1) {
		if strings.Trim(w, "0123456789") != "" {
			out = append(out, w)
		}
	}
	return out
}

// LearnRules counts description words per category and direction across the
// categorized transactions and suggests, for each pair, the most frequent
// words seen at least three times (at most ten, sorted).
func LearnRules(txns []model.Transaction) []Suggestion {
	type key struct {
		category string
		debit    bool
	}
	counts := map[key]map[string]int{}
	for _, txn := range txns {
		if txn.IsUncategorized() {
			continue
		}
		k := key{txn.Category, txn.IsDebit()}
		if counts[k] == nil {
			counts[k] = map[string]int{}
		}
		for _, w := range words(txn.Description) {
			counts[k][w]++
		}
	}

	var out []Suggestion
	for k, wc := range counts {
		ranked := make([]string, 0, len(wc))
		for w := range wc {
			ranked = append(ranked, w)
		}
		slices.SortFunc(ranked, func(a, b string) int {
			if c := cmp.Compare(wc[b], wc[a]); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})

		var kw []string
		for _, w := range ranked[:min(maxKeywords, len(ranked))] {
			if wc[w] >= minKeywordCount {
				kw = append(kw, w)
			}
		}
		if len(kw) == 0 {
			continue
		}
		slices.Sort(kw)
		out = append(out, Suggestion{Category: k.category, Keywords: kw, Debit: k.debit})
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		// debits first
		switch {
		case a.Debit == b.Debit:
			return 0
		case a.Debit:
			return -1
		default:
			return 1
		}
	})
	return out
}

// Suggester guesses categories for uncategorized transactions with a naive
// Bayes classifier trained on the description words of categorized ones.
type Suggester struct {
	classes []bayesian.Class
	cl      *bayesian.Classifier
}

// NewSuggester trains a Suggester. ok is false when the transactions carry
// fewer than two distinct categories, which the classifier cannot handle.
func NewSuggester(txns []model.Transaction) (s *Suggester, ok bool) {
	seen := map[string]bool{}
	var classes []bayesian.Class
	for _, txn := range txns {
		if txn.IsUncategorized() || seen[txn.Category] {
			continue
		}
		seen[txn.Category] = true
		classes = append(classes, bayesian.Class(txn.Category))
	}
	if len(classes) < 2 {
		return nil, false
	}
	slices.Sort(classes)

	s = &Suggester{classes: classes, cl: bayesian.NewClassifier(classes...)}
	for _, txn := range txns {
		if txn.IsUncategorized() {
			continue
		}
		if terms := words(txn.Description); len(terms) > 0 {
			s.cl.Learn(terms, bayesian.Class(txn.Category))
		}
	}
	return s, true
}

// Suggest returns the most likely category for txn. ok is false when the
// description has no usable words.
func (s *Suggester) Suggest(txn model.Transaction) (category string, ok bool) {
	terms := words(txn.Description)
	if len(terms) == 0 {
		return "", false
	}
	_, best, _ := s.cl.LogScores(terms)
	return string(s.classes[best]), true
}
