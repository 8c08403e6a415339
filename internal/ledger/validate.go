package ledger

import (
	"fmt"
	"strings"

	"github.com/gajana-dev/gajana/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Index       int // position in the validated slice
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("transaction %d %s: %s", e.Index, e.Field, e.Description)
}

// AccountChecker tests whether an account name is configured for a ledger.
type AccountChecker interface {
	Has(logType model.LogType, name string) bool
}

// Validate checks transactions bound for the logType ledger. A nil accounts
// skips the account membership check.
func Validate(txns []model.Transaction, logType model.LogType, accounts AccountChecker) []ValidationError {
	var errs []ValidationError
	for i, txn := range txns {
		if txn.Date.IsZero() {
			errs = append(errs, ValidationError{Index: i, Field: model.FieldDate, Description: "missing date"})
		}

		switch {
		case strings.TrimSpace(txn.Account) == "":
			errs = append(errs, ValidationError{Index: i, Field: model.FieldAccount, Description: "missing account"})
		case accounts != nil && !accounts.Has(logType, txn.Account):
			errs = append(errs, ValidationError{
				Index:       i,
				Field:       model.FieldAccount,
				Description: fmt.Sprintf("account %q is not a configured %s account", txn.Account, logType),
			})
		}

		// Rounded to cents the amount must be exactly representable.
		if !txn.Amount.Equal(txn.Amount.Round(2)) {
			errs = append(errs, ValidationError{
				Index:       i,
				Field:       model.FieldAmount,
				Description: fmt.Sprintf("%s has more than 2 decimal places", txn.Amount),
			})
		}

		if strings.TrimSpace(txn.Category) == "" {
			errs = append(errs, ValidationError{Index: i, Field: model.FieldCategory, Description: "missing category"})
		}
	}
	return errs
}

// Check runs Validate and folds the violations into one error.
func Check(txns []model.Transaction, logType model.LogType, accounts AccountChecker) error {
	verrs := Validate(txns, logType, accounts)
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%s ledger validation failed: %s", logType, strings.Join(msgs, "; "))
}
