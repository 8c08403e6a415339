// Package matcher decides which parsed statement transactions are not yet
// recorded in the ledger.
package matcher

import (
	"sort"

	"github.com/gajana-dev/gajana/internal/id"
	"github.com/gajana-dev/gajana/internal/model"
)

// Skipped records a candidate that could not be keyed.
type Skipped struct {
	Index       int
	Transaction model.Transaction
	Err         error
}

// Result is the outcome of FindNew.
type Result struct {
	New        []model.Transaction
	Duplicates int       // candidates already in the ledger or repeated in the batch
	Skipped    []Skipped // candidates without a complete identity key
	// BaselineErr is set when an old transaction could not be keyed. The
	// baseline is then empty and every candidate is treated as new.
	BaselineErr error
}

// FindNew returns the candidates whose identity key is neither in old nor
// already emitted earlier in candidates, sorted by date, account, amount and
// description.
func FindNew(old, candidates []model.Transaction) Result {
	var res Result
	if len(candidates) == 0 {
		return res
	}

	baseline, err := keySet(old)
	if err != nil {
		res.BaselineErr = err
		baseline = map[id.Key]struct{}{}
	}

	seen := make(map[id.Key]struct{}, len(candidates))
	for i, txn := range candidates {
		k, err := id.KeyOf(txn)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Index: i, Transaction: txn, Err: err})
			continue
		}
		if _, ok := baseline[k]; ok {
			res.Duplicates++
			continue
		}
		if _, ok := seen[k]; ok {
			res.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		res.New = append(res.New, txn)
	}

	Sort(res.New)
	return res
}

func keySet(txns []model.Transaction) (map[id.Key]struct{}, error) {
	set := make(map[id.Key]struct{}, len(txns))
	for _, txn := range txns {
		k, err := id.KeyOf(txn)
		if err != nil {
			return nil, err
		}
		set[k] = struct{}{}
	}
	return set, nil
}

// Sort orders transactions by date, account, amount and description.
func Sort(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return Less(txns[i], txns[j])
	})
}

// Less is the canonical transaction ordering.
func Less(a, b model.Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Account != b.Account {
		return a.Account < b.Account
	}
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c < 0
	}
	return a.Description < b.Description
}
