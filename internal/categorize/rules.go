// Package categorize assigns categories to transactions from an ordered
// list of description-matching rules.
package categorize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Pattern matches a lower-cased transaction description. It is either a
// Literal or a Regex, decided once when the rule file is loaded.
type Pattern interface {
	Match(description string) bool
	String() string
}

// Literal matches by substring containment. It is stored lower-cased.
type Literal string

func (l Literal) Match(description string) bool { return strings.Contains(description, string(l)) }
func (l Literal) String() string                { return string(l) }

// Regex matches by case-insensitive regular expression search.
type Regex struct {
	re *regexp.Regexp
}

func (r Regex) Match(description string) bool { return r.re.MatchString(description) }
func (r Regex) String() string                { return r.re.String() }

// Rule assigns Category to transactions whose description matches any of
// Patterns. Debit, when set, restricts the rule to debits (true) or credits
// (false); Account, when set, must occur in the transaction's account name.
type Rule struct {
	Category string
	Patterns []Pattern
	Debit    *bool
	Account  string
}

// RuleError reports a malformed rule. Index is the 0-based position of the
// rule in the file.
type RuleError struct {
	Index int
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d: %v", e.Index, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// ParseRules decodes and compiles a JSON array of rules.
//
// Each rule object has the keys category (required), description (required
// array of strings), debit, account and use_regex. Any malformed rule
// rejects the whole file.
func ParseRules(r io.Reader) ([]Rule, error) {
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	rules := make([]Rule, 0, len(raw))
	for i, obj := range raw {
		rule, err := compileRule(obj)
		if err != nil {
			return nil, &RuleError{Index: i, Err: err}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compileRule(obj map[string]json.RawMessage) (Rule, error) {
	var rule Rule
	if obj == nil {
		return rule, errors.New("not an object")
	}

	if err := field(obj, "category", &rule.Category); err != nil {
		return rule, err
	}
	if strings.TrimSpace(rule.Category) == "" {
		return rule, errors.New("category is required")
	}

	descRaw, ok := obj["description"]
	if !ok {
		return rule, errors.New("description is required")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(descRaw, &entries); err != nil || entries == nil {
		return rule, fmt.Errorf("description must be an array of strings, got %s", descRaw)
	}

	var useRegex bool
	if err := field(obj, "use_regex", &useRegex); err != nil {
		return rule, err
	}
	if raw, ok := obj["debit"]; ok && string(raw) != "null" {
		var debit bool
		if err := field(obj, "debit", &debit); err != nil {
			return rule, err
		}
		rule.Debit = &debit
	}
	if err := field(obj, "account", &rule.Account); err != nil {
		return rule, err
	}

	for j, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			return rule, fmt.Errorf("description[%d] must be a string, got %s", j, e)
		}
		if !useRegex {
			rule.Patterns = append(rule.Patterns, Literal(strings.ToLower(s)))
			continue
		}
		re, err := regexp.Compile("(?i)" + s)
		if err != nil {
			return rule, fmt.Errorf("description[%d]: %w", j, err)
		}
		rule.Patterns = append(rule.Patterns, Regex{re: re})
	}
	return rule, nil
}

// field decodes obj[key] into dst when present. JSON null counts as absent.
func field(obj map[string]json.RawMessage, key string, dst any) error {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s has the wrong type: %s", key, raw)
	}
	return nil
}
