// Package parse normalizes the cell encodings found in statement exports.
package parse

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// missing holds cell values that mean "no amount" rather than a bad amount.
var missing = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"<na>": true,
}

var currencyGlyphs = []string{"₹", "$", "€", "£", "¥", "Rs.", "INR"}

// ParseAmount converts a statement amount cell into a signed decimal.
//
// It never fails: empty and missing-sentinel cells yield zero with ok=true,
// and anything that still cannot be read yields zero with ok=false so the
// caller can report it.
func ParseAmount(raw string) (amount decimal.Decimal, ok bool) {
	s := strings.TrimSpace(raw)
	if missing[strings.ToLower(s)] {
		return decimal.Zero, true
	}

	s = strings.ReplaceAll(s, ",", "")
	for _, g := range currencyGlyphs {
		s = strings.ReplaceAll(s, g, "")
	}
	s = strings.TrimSpace(s)

	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, " cr"):
		s = strings.TrimSpace(s[:len(s)-3])
	case strings.HasSuffix(lower, " dr"):
		s = "-" + strings.TrimSpace(s[:len(s)-3])
	}

	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "--") {
		s = s[2:]
	}

	if strings.Contains(strings.ToUpper(s), "E+") {
		return parseScientific(s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseScientific(s string) (decimal.Decimal, bool) {
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
