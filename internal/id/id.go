package id

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gajana-dev/gajana/internal/model"
)

// DateFormat is the date layout used in identity keys.
const DateFormat = "2006-01-02"

// ErrIncompleteKey is returned when a transaction lacks a key field.
var ErrIncompleteKey = errors.New("incomplete identity key")

// Key identifies a real-world transaction for deduplication.
// Two transactions are the same iff their keys are equal.
type Key struct {
	Date        string
	Account     string
	Amount      string // two decimal places
	Description string // verbatim
}

// String renders the key like "2025-01-03|Savings|-4.00|GITHUB".
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Date, k.Account, k.Amount, k.Description)
}

// KeyOf builds the identity key of a transaction.
// A zero date or an empty account yields ErrIncompleteKey.
func KeyOf(txn model.Transaction) (Key, error) {
	if txn.Date.IsZero() {
		return Key{}, fmt.Errorf("%w: missing date (description %q)", ErrIncompleteKey, txn.Description)
	}
	if txn.Account == "" {
		return Key{}, fmt.Errorf("%w: missing account (description %q)", ErrIncompleteKey, txn.Description)
	}
	return Key{
		Date:        txn.Date.Format(DateFormat),
		Account:     txn.Account,
		Amount:      txn.Amount.StringFixed(2),
		Description: txn.Description,
	}, nil
}

// Hash returns the hex SHA-256 of the key's stable representation
// "date-account-amount-description".
func Hash(k Key) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%s-%s", k.Date, k.Account, k.Amount, k.Description)))
	return hex.EncodeToString(sum[:])
}
