package model

import "fmt"

// LogType selects one of the two ledgers.
type LogType string

const (
	LogBank       LogType = "bank"
	LogCreditCard LogType = "cc"
)

// LogTypes lists every ledger in processing order.
var LogTypes = []LogType{LogBank, LogCreditCard}

// ParseLogType validates a log type string.
func ParseLogType(s string) (LogType, error) {
	switch LogType(s) {
	case LogBank, LogCreditCard:
		return LogType(s), nil
	default:
		return "", fmt.Errorf("unknown log type %q (want %q or %q)", s, LogBank, LogCreditCard)
	}
}

// StatementFile identifies one statement export in a statement source.
type StatementFile struct {
	ID   string
	Name string
}
