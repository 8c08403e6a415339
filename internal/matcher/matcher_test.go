package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gajana-dev/gajana/internal/id"
	"github.com/gajana-dev/gajana/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func txn(d int, account, amount, desc string) model.Transaction {
	return model.Transaction{
		Date:        day(d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Category:    model.DefaultCategory,
		Account:     account,
	}
}

func TestFindNew_EmptyCandidates(t *testing.T) {
	res := FindNew([]model.Transaction{txn(1, "A", "-1", "x")}, nil)
	assert.Empty(t, res.New)
	assert.Nil(t, res.BaselineErr)
}

func TestFindNew_EmptyOldAllNew(t *testing.T) {
	cands := []model.Transaction{
		txn(3, "A", "-10", "c"),
		txn(1, "A", "-10", "a"),
		txn(2, "A", "-10", "b"),
	}
	res := FindNew(nil, cands)
	require.Len(t, res.New, 3)
	assert.Equal(t, "a", res.New[0].Description)
	assert.Equal(t, "b", res.New[1].Description)
	assert.Equal(t, "c", res.New[2].Description)
}

func TestFindNew_DedupWithinCandidates(t *testing.T) {
	cands := []model.Transaction{
		txn(5, "CC-HDFC", "-500", "Payment to Zomato"),
		txn(5, "CC-HDFC", "-500.00", "Payment to Zomato"),
	}
	res := FindNew(nil, cands)
	assert.Len(t, res.New, 1)
	assert.Equal(t, 1, res.Duplicates)
}

func TestFindNew_ExcludesOld(t *testing.T) {
	old := []model.Transaction{
		txn(1, "A", "-10", "coffee"),
		txn(2, "A", "100", "salary"),
	}
	cands := []model.Transaction{
		txn(1, "A", "-10", "coffee"),
		txn(2, "A", "100", "salary"),
		txn(3, "A", "-20", "lunch"),
	}
	res := FindNew(old, cands)
	require.Len(t, res.New, 1)
	assert.Equal(t, "lunch", res.New[0].Description)
	assert.Equal(t, 2, res.Duplicates)
}

func TestFindNew_KeyIsCaseAndWhitespaceSensitive(t *testing.T) {
	old := []model.Transaction{txn(1, "A", "-10", "Coffee")}
	cands := []model.Transaction{txn(1, "A", "-10", "coffee"), txn(1, "A", "-10", "Coffee ")}
	res := FindNew(old, cands)
	assert.Len(t, res.New, 2)
}

func TestFindNew_DifferentAccountIsNew(t *testing.T) {
	old := []model.Transaction{txn(1, "A", "-10", "coffee")}
	res := FindNew(old, []model.Transaction{txn(1, "B", "-10", "coffee")})
	assert.Len(t, res.New, 1)
}

func TestFindNew_MergedBaselineYieldsNothing(t *testing.T) {
	old := []model.Transaction{txn(1, "A", "-10", "coffee")}
	cands := []model.Transaction{
		txn(1, "A", "-10", "coffee"),
		txn(2, "A", "-20", "lunch"),
		txn(2, "A", "-20", "lunch"),
		txn(3, "B", "50", "refund"),
	}
	first := FindNew(old, cands)
	require.Len(t, first.New, 2)

	merged := append(append([]model.Transaction{}, old...), first.New...)
	second := FindNew(merged, cands)
	assert.Empty(t, second.New)
}

func TestFindNew_SkipsIncompleteCandidate(t *testing.T) {
	bad := txn(1, "", "-10", "no account")
	res := FindNew(nil, []model.Transaction{bad, txn(2, "A", "-1", "ok")})
	require.Len(t, res.New, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 0, res.Skipped[0].Index)
	assert.ErrorIs(t, res.Skipped[0].Err, id.ErrIncompleteKey)
}

func TestFindNew_IncompleteOldDegradesBaseline(t *testing.T) {
	old := []model.Transaction{
		txn(1, "A", "-10", "coffee"),
		{Description: "broken", Account: "A"},
	}
	res := FindNew(old, []model.Transaction{txn(1, "A", "-10", "coffee")})
	require.Error(t, res.BaselineErr)
	assert.ErrorIs(t, res.BaselineErr, id.ErrIncompleteKey)
	assert.Len(t, res.New, 1, "degraded baseline treats everything as new")
}

func TestSortOrder(t *testing.T) {
	txns := []model.Transaction{
		txn(2, "A", "1", "z"),
		txn(1, "B", "1", "a"),
		txn(1, "A", "5", "a"),
		txn(1, "A", "-5", "b"),
		txn(1, "A", "-5", "a"),
	}
	Sort(txns)
	got := make([]string, len(txns))
	for i, tx := range txns {
		k, err := id.KeyOf(tx)
		require.NoError(t, err)
		got[i] = k.String()
	}
	assert.Equal(t, []string{
		"2024-01-01|A|-5.00|a",
		"2024-01-01|A|-5.00|b",
		"2024-01-01|A|5.00|a",
		"2024-01-01|B|1.00|a",
		"2024-01-02|A|1.00|z",
	}, got)
}
