// Package ledger converts transactions to and from the ledger row format and
// stores ledgers as CSV files.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/statement"
)

// Header is the first row of every ledger.
var Header = []string{"Date", "Description", "Debit", "Credit", "Category", "Remarks", "Account"}

const (
	numFields  = 7
	dateFormat = "2006-01-02"
	colDate    = 0
	colDesc    = 1
	colDebit   = 2
	colCredit  = 3
	colCat     = 4
	colRemarks = 5
	colAccount = 6
)

// FormatRow converts a transaction to a ledger row. A negative amount is
// written, negated, to Debit; anything else goes to Credit.
func FormatRow(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = txn.Date.Format(dateFormat)
	row[colDesc] = txn.Description
	if txn.IsDebit() {
		row[colDebit] = txn.Amount.Neg().StringFixed(2)
	} else {
		row[colCredit] = txn.Amount.StringFixed(2)
	}
	row[colCat] = txn.Category
	row[colRemarks] = txn.Remarks
	row[colAccount] = txn.Account
	return row
}

// FormatRows converts transactions to ledger rows, without the header.
func FormatRows(txns []model.Transaction) [][]string {
	rows := make([][]string, len(txns))
	for i, txn := range txns {
		rows[i] = FormatRow(txn)
	}
	return rows
}

// LogProfile is the parsing profile that reads ledger rows back into
// transactions with statement.Standardize.
func LogProfile() model.ParsingProfile {
	return model.ParsingProfile{
		Name:           "ledger",
		HeaderPatterns: [][]string{{"Date", "Description", "Debit", "Credit", "Account"}},
		ColumnMap: map[string]string{
			Header[colDate]:    model.FieldDate,
			Header[colDesc]:    model.FieldDescription,
			Header[colDebit]:   model.FieldDebit,
			Header[colCredit]:  model.FieldCredit,
			Header[colCat]:     model.FieldCategory,
			Header[colRemarks]: model.FieldRemarks,
			Header[colAccount]: model.FieldAccount,
		},
		DateFormats: []string{"%Y-%m-%d"},
	}
}

// ReadRows reads every record, header included. Short records are allowed;
// the standardizer pads them.
func ReadRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	return records, nil
}

// WriteRows writes the header followed by rows.
func WriteRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return appendRows(cw, rows)
}

// AppendRows writes rows without a header.
func AppendRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	return appendRows(cw, rows)
}

func appendRows(cw *csv.Writer, rows [][]string) error {
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads ledger rows, header included, back into transactions.
func Decode(rows [][]string) (*statement.Result, error) {
	res, err := statement.Standardize(rows, LogProfile(), "")
	if err != nil {
		return nil, fmt.Errorf("decoding ledger rows: %w", err)
	}
	return res, nil
}
