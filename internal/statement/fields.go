package statement

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/parse"
)

// standardizeDates parses the date column and drops rows whose date cannot
// be read. The returned slice is aligned with the surviving rows.
func standardizeDates(t *table, formats []string) ([]time.Time, []Issue, error) {
	col := t.index(model.FieldDate)
	if col < 0 {
		return nil, nil, fmt.Errorf("%w: columns are %q", ErrNoDateColumn, t.columns)
	}

	var issues []Issue
	keep := make([]bool, len(t.rows))
	dates := make([]time.Time, 0, len(t.rows))
	for r, row := range t.rows {
		d, ok := parse.ParseDate(row[col], formats)
		if !ok {
			if strings.Trim(row[col], "' ") != "" {
				issues = append(issues, Issue{
					Kind:   IssueDateUnparsable,
					Row:    t.src[r] + 1,
					Column: model.FieldDate,
					Value:  row[col],
					Detail: "row dropped",
				})
			}
			continue
		}
		keep[r] = true
		dates = append(dates, d)
	}
	t.filterRows(keep)
	return dates, issues, nil
}

// computeAmounts derives the signed amount of every row, in priority order:
// credit minus debit, amount with a sign column, plain amount.
func computeAmounts(t *table, profile model.ParsingProfile) ([]decimal.Decimal, []Issue, error) {
	var issues []Issue
	amount := func(r, col int, name string) decimal.Decimal {
		raw := t.cell(r, col)
		v, ok := parse.ParseAmount(raw)
		if !ok {
			issues = append(issues, Issue{
				Kind:   IssueAmountUnparsable,
				Row:    t.src[r] + 1,
				Column: name,
				Value:  raw,
				Detail: "treated as 0",
			})
		}
		return v
	}

	out := make([]decimal.Decimal, len(t.rows))
	debit, credit := t.index(model.FieldDebit), t.index(model.FieldCredit)
	amt := t.index(model.FieldAmount)
	sign := signColumn(t, profile.AmountSignCol)

	switch {
	case debit >= 0 && credit >= 0:
		for r := range t.rows {
			out[r] = amount(r, credit, model.FieldCredit).Sub(amount(r, debit, model.FieldDebit))
		}
	case amt >= 0 && sign >= 0:
		// An empty debit value means a missing sign cell marks a debit.
		debitValue := strings.ToLower(profile.DebitValue)
		for r := range t.rows {
			v := amount(r, amt, model.FieldAmount)
			if strings.ToLower(strings.TrimSpace(t.cell(r, sign))) == debitValue {
				v = v.Neg()
			}
			out[r] = v
		}
	case amt >= 0:
		for r := range t.rows {
			out[r] = amount(r, amt, model.FieldAmount)
		}
	default:
		return nil, nil, fmt.Errorf("%w: columns are %q", ErrNoAmountSource, t.columns)
	}

	// Ledgers hold cents.
	for r, v := range out {
		if rounded := v.Round(2); !rounded.Equal(v) {
			issues = append(issues, Issue{
				Kind:   IssueAmountRounded,
				Row:    t.src[r] + 1,
				Column: model.FieldAmount,
				Value:  v.String(),
				Detail: "rounded to " + rounded.StringFixed(2),
			})
			out[r] = rounded
		}
	}
	return out, issues, nil
}

func signColumn(t *table, name string) int {
	if name == "" {
		return -1
	}
	if j := t.index(name); j >= 0 {
		return j
	}
	return t.indexFold(name)
}

// project selects the canonical fields, filling defaults for absent ones.
func project(t *table, dates []time.Time, amounts []decimal.Decimal, account string) ([]model.Transaction, []Issue) {
	var issues []Issue
	desc := t.index(model.FieldDescription)
	category := t.index(model.FieldCategory)
	remarks := t.index(model.FieldRemarks)
	acct := t.index(model.FieldAccount)

	if desc < 0 {
		issues = append(issues, Issue{Kind: IssueFieldDefaulted, Row: -1, Column: model.FieldDescription, Detail: `defaulted to ""`})
	}
	if account == "" && acct < 0 {
		issues = append(issues, Issue{Kind: IssueFieldDefaulted, Row: -1, Column: model.FieldAccount, Detail: "defaulted to " + model.UnknownAccount})
	}

	txns := make([]model.Transaction, len(t.rows))
	for r := range t.rows {
		txn := model.Transaction{
			Date:        dates[r],
			Description: t.cell(r, desc),
			Amount:      amounts[r],
			Category:    t.cell(r, category),
			Remarks:     t.cell(r, remarks),
			Account:     account,
		}
		if txn.Category == "" {
			txn.Category = model.DefaultCategory
		}
		if txn.Account == "" {
			txn.Account = t.cell(r, acct)
		}
		if txn.Account == "" {
			txn.Account = model.UnknownAccount
		}
		txns[r] = txn
	}
	return txns, issues
}
