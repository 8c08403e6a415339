package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to transactions no rule matched.
const DefaultCategory = "Uncategorized"

// UnknownAccount is stamped on rows whose account could not be determined.
const UnknownAccount = "Unknown"

// Canonical field names, in canonical order.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldRemarks     = "remarks"
	FieldAccount     = "account"
	FieldDebit       = "debit"
	FieldCredit      = "credit"
)

// Fields lists the canonical transaction fields in canonical order.
var Fields = []string{FieldDate, FieldDescription, FieldAmount, FieldCategory, FieldRemarks, FieldAccount}

// Transaction is a canonical ledger or statement record.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = debit/outflow, positive = credit/inflow
	Category    string
	Remarks     string
	Account     string
}

// IsDebit reports whether the transaction is an outflow.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsUncategorized reports whether no category has been assigned yet.
func (t Transaction) IsUncategorized() bool {
	return t.Category == "" || t.Category == DefaultCategory
}
