// Package statement turns raw statement exports into canonical transactions.
package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gajana-dev/gajana/internal/model"
)

// Structural failures. Any of these rejects the whole statement.
var (
	ErrTable          = errors.New("cannot build statement table")
	ErrNoDateColumn   = errors.New("no date column after renaming")
	ErrNoAmountSource = errors.New("no debit/credit or amount column")
)

// IssueKind classifies a recoverable standardization problem.
type IssueKind string

const (
	IssueHeaderNotDetected IssueKind = "header-not-detected"
	IssueColumnNotFound    IssueKind = "column-not-found"
	IssueMalformedRow      IssueKind = "malformed-row"
	IssueDateUnparsable    IssueKind = "date-unparsable"
	IssueAmountUnparsable  IssueKind = "amount-unparsable"
	IssueAmountRounded     IssueKind = "amount-rounded"
	IssueFieldDefaulted    IssueKind = "field-defaulted"
)

// Issue is a problem that was worked around: a row dropped, a value zeroed
// or a mapping skipped.
type Issue struct {
	Kind   IssueKind
	Row    int // 1-based raw row number, -1 when not row specific
	Column string
	Value  string
	Detail string
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	if i.Row >= 0 {
		fmt.Fprintf(&b, " row %d", i.Row)
	}
	if i.Column != "" {
		fmt.Fprintf(&b, " column %q", i.Column)
	}
	if i.Value != "" {
		fmt.Fprintf(&b, " value %q", i.Value)
	}
	if i.Detail != "" {
		b.WriteString(": " + i.Detail)
	}
	return b.String()
}

// Result is the outcome of Standardize.
type Result struct {
	Transactions   []model.Transaction
	HeaderRow      int // 0-based index into the raw rows
	HeaderDetected bool
	Issues         []Issue
}

// Standardize converts raw statement rows into canonical transactions using
// profile. When account is non-empty every transaction is stamped with it;
// otherwise the rows must carry an account column.
//
// Malformed rows are dropped and reported in Result.Issues. An error is
// returned only when the statement as a whole is unusable.
func Standardize(rows [][]string, profile model.ParsingProfile, account string) (*Result, error) {
	res := &Result{}
	if len(rows) == 0 {
		return res, nil
	}

	header, ok := DetectHeader(rows, profile.HeaderPatterns)
	res.HeaderRow, res.HeaderDetected = header, ok
	if !ok {
		res.Issues = append(res.Issues, Issue{
			Kind:   IssueHeaderNotDetected,
			Row:    1,
			Detail: "assuming the first row is the header",
		})
	}

	t, issues, err := buildTable(rows, header, profile)
	if err != nil {
		return nil, err
	}
	res.Issues = append(res.Issues, issues...)
	if len(t.rows) == 0 {
		return res, nil
	}

	res.Issues = append(res.Issues, t.rename(profile.ColumnMap)...)

	dates, issues, err := standardizeDates(t, profile.DateFormats)
	if err != nil {
		return nil, err
	}
	res.Issues = append(res.Issues, issues...)
	if len(t.rows) == 0 {
		return res, nil
	}

	amounts, issues, err := computeAmounts(t, profile)
	if err != nil {
		return nil, err
	}
	res.Issues = append(res.Issues, issues...)

	txns, issues := project(t, dates, amounts, account)
	res.Issues = append(res.Issues, issues...)
	res.Transactions = txns
	return res, nil
}
