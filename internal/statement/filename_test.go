package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gajana-dev/gajana/internal/model"
)

func TestInterpretFileName(t *testing.T) {
	accounts := []string{"Savings-HDFC", "CC-HDFC", "CC-Axis"}
	tests := []struct {
		name    string
		logType model.LogType
		account string
		end     time.Time
		ok      bool
	}{
		{"bank-savings-hdfc-2024.csv", model.LogBank, "Savings-HDFC", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"cc-hdfc-2024-02", model.LogCreditCard, "CC-HDFC", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"CC-AXIS-2023-12.xlsx", model.LogCreditCard, "CC-Axis", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"cc-hdfc-latest", model.LogCreditCard, "CC-HDFC", time.Time{}, true},
		{"cc-hdfc-2024-13", model.LogCreditCard, "CC-HDFC", time.Time{}, true},
		{"bank-icici-2024", model.LogBank, "", time.Time{}, false},
	}
	for _, tt := range tests {
		account, end, ok := InterpretFileName(tt.name, accounts, tt.logType)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.account, account, tt.name)
		assert.Equal(t, tt.end, end, tt.name)
	}
}
