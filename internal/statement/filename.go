package statement

import (
	"strconv"
	"strings"
	"time"

	"github.com/gajana-dev/gajana/internal/model"
)

// InterpretFileName finds the configured account a statement file belongs to
// and, when the name follows the naming convention, the statement end date.
//
// Bank statements are yearly and end in "-YYYY" (end date Dec 31); credit
// card statements are monthly and end in "-YYYY-MM" (end date is the last
// day of the month). ok is false when no account name occurs in the file
// name; end is zero when the date suffix is missing or malformed.
func InterpretFileName(name string, accounts []string, logType model.LogType) (account string, end time.Time, ok bool) {
	lower := strings.ToLower(name)
	for _, acc := range accounts {
		if strings.Contains(lower, strings.ToLower(acc)) {
			account = acc
			break
		}
	}
	if account == "" {
		return "", time.Time{}, false
	}

	base, _, _ := strings.Cut(lower, ".")
	parts := strings.Split(base, "-")

	switch logType {
	case model.LogBank:
		if year, ok := digits(parts, 1, 4); ok {
			return account, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), true
		}
	case model.LogCreditCard:
		year, yok := digits(parts, 2, 4)
		month, mok := digits(parts, 1, 2)
		if yok && mok && month >= 1 && month <= 12 {
			firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
			return account, firstOfNext.AddDate(0, 0, -1), true
		}
	}
	return account, time.Time{}, true
}

// digits reads parts[len(parts)-fromEnd] as an all-digit number of width n.
func digits(parts []string, fromEnd, n int) (int, bool) {
	i := len(parts) - fromEnd
	if i < 0 {
		return 0, false
	}
	p := strings.TrimSpace(parts[i])
	if len(p) != n {
		return 0, false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(p)
	if err != nil {
		return 0, false
	}
	return v, true
}
