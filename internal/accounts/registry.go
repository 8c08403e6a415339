// Package accounts tracks which configured accounts belong to which ledger.
package accounts

import (
	"strings"
	"time"

	"github.com/gajana-dev/gajana/internal/model"
)

// Registry provides lookup over the configured bank and credit card
// accounts.
type Registry struct {
	byType map[model.LogType][]model.Account
	byName map[string]model.LogType
}

// NewRegistry creates a Registry. An account listed under both ledgers
// belongs to the first one, bank.
func NewRegistry(bank, cc []model.Account) *Registry {
	r := &Registry{
		byType: map[model.LogType][]model.Account{
			model.LogBank:       bank,
			model.LogCreditCard: cc,
		},
		byName: make(map[string]model.LogType, len(bank)+len(cc)),
	}
	for _, lt := range model.LogTypes {
		for _, a := range r.byType[lt] {
			if _, dup := r.byName[a.Name]; !dup {
				r.byName[a.Name] = lt
			}
		}
	}
	return r
}

// Names returns the account names of a ledger in configuration order.
func (r *Registry) Names(logType model.LogType) []string {
	accts := r.byType[logType]
	names := make([]string, len(accts))
	for i, a := range accts {
		names[i] = a.Name
	}
	return names
}

// Has reports whether name is configured for logType.
func (r *Registry) Has(logType model.LogType, name string) bool {
	lt, ok := r.byName[name]
	return ok && lt == logType
}

// TypeOf returns the ledger an account belongs to.
func (r *Registry) TypeOf(name string) (model.LogType, bool) {
	lt, ok := r.byName[name]
	return lt, ok
}

// ProfileKey returns the parsing profile name for an account's statements.
// Without an explicit profile it is "<log type>-<institution>", where the
// institution is the second dash-separated segment of the account name,
// lower-cased ("Savings-HDFC" gives "bank-hdfc").
func (r *Registry) ProfileKey(logType model.LogType, name string) string {
	for _, a := range r.byType[logType] {
		if a.Name == name && a.Profile != "" {
			return a.Profile
		}
	}
	inst := name
	if parts := strings.Split(name, "-"); len(parts) > 1 {
		inst = parts[1]
	}
	return string(logType) + "-" + strings.ToLower(strings.TrimSpace(inst))
}

// Split partitions transactions by the ledger their account belongs to.
// Transactions of unconfigured accounts are returned in other.
func (r *Registry) Split(txns []model.Transaction) (byType map[model.LogType][]model.Transaction, other []model.Transaction) {
	byType = make(map[model.LogType][]model.Transaction, len(model.LogTypes))
	for _, txn := range txns {
		lt, ok := r.byName[txn.Account]
		if !ok {
			other = append(other, txn)
			continue
		}
		byType[lt] = append(byType[lt], txn)
	}
	return byType, other
}

// LatestByAccount returns the most recent transaction date of each account.
func LatestByAccount(txns []model.Transaction) map[string]time.Time {
	latest := make(map[string]time.Time)
	for _, txn := range txns {
		if txn.Date.After(latest[txn.Account]) {
			latest[txn.Account] = txn.Date
		}
	}
	return latest
}
