package pipeline

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gajana-dev/gajana/internal/accounts"
	"github.com/gajana-dev/gajana/internal/categorize"
	"github.com/gajana-dev/gajana/internal/ledger"
	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/statement"
)

// fakeSource serves statements from memory.
type fakeSource struct {
	mu      sync.Mutex
	files   []model.StatementFile
	data    map[string][][]string
	failIDs map[string]bool
	fetched []string
	marked  []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{data: map[string][][]string{}, failIDs: map[string]bool{}}
}

func (s *fakeSource) add(name string, rows [][]string) {
	s.files = append(s.files, model.StatementFile{ID: name, Name: name})
	s.data[name] = rows
}

func (s *fakeSource) ListStatementFiles(context.Context) ([]model.StatementFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.StatementFile
	for _, f := range s.files {
		if !slices.Contains(s.marked, f.ID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeSource) FirstSheetName(_ context.Context, id string) (string, error) {
	if s.failIDs[id] {
		return "", errors.New("backend unavailable")
	}
	return "Sheet1", nil
}

func (s *fakeSource) GetSheetData(_ context.Context, id, _, _ string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, id)
	return s.data[id], nil
}

func (s *fakeSource) MarkProcessed(f model.StatementFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, f.ID)
	return nil
}

// fakeLedger keeps ledger rows, header included, in memory.
type fakeLedger struct {
	rows    map[model.LogType][][]string
	appends int
	clears  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[model.LogType][][]string{}}
}

func (l *fakeLedger) seed(lt model.LogType, txns ...model.Transaction) {
	l.rows[lt] = append([][]string{ledger.Header}, ledger.FormatRows(txns)...)
}

func (l *fakeLedger) TransactionLog(_ context.Context, lt model.LogType) ([][]string, error) {
	return slices.Clone(l.rows[lt]), nil
}

func (l *fakeLedger) AppendTransactions(_ context.Context, lt model.LogType, rows [][]string) error {
	l.appends++
	if len(l.rows[lt]) == 0 {
		l.rows[lt] = [][]string{ledger.Header}
	}
	l.rows[lt] = append(l.rows[lt], rows...)
	return nil
}

func (l *fakeLedger) ClearRange(_ context.Context, lt model.LogType) error {
	l.clears++
	l.rows[lt] = [][]string{ledger.Header}
	return nil
}

func (l *fakeLedger) WriteTransactions(_ context.Context, lt model.LogType, rows [][]string) error {
	l.rows[lt] = append(l.rows[lt], rows...)
	return nil
}

func (l *fakeLedger) txns(t *testing.T, lt model.LogType) []model.Transaction {
	t.Helper()
	if len(l.rows[lt]) <= 1 {
		return nil
	}
	res, err := ledger.Decode(l.rows[lt])
	require.NoError(t, err)
	return res.Transactions
}

type fakeBackup struct {
	stored []model.Transaction
}

func (b *fakeBackup) Backup(_ context.Context, txns []model.Transaction) (int, error) {
	b.stored = append(b.stored, txns...)
	return len(txns), nil
}

func (b *fakeBackup) Restore(context.Context) ([]model.Transaction, error) {
	return b.stored, nil
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func tx(d int, desc, amount, category, account string) model.Transaction {
	return model.Transaction{
		Date:        day(d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Account:     account,
	}
}

func hdfc() model.ParsingProfile {
	return model.ParsingProfile{
		Name:           "hdfc",
		HeaderPatterns: [][]string{{"Tran Date", "PARTICULARS", "DR", "CR"}},
		ColumnMap: map[string]string{
			"Tran Date":   model.FieldDate,
			"PARTICULARS": model.FieldDescription,
			"DR":          model.FieldDebit,
			"CR":          model.FieldCredit,
		},
		DateFormats: []string{"%d-%m-%Y"},
	}
}

func testRules(t *testing.T) []categorize.Rule {
	t.Helper()
	rules, err := categorize.ParseRules(strings.NewReader(`[
		{"category": "Food", "description": ["zomato"], "debit": true},
		{"category": "Income", "description": ["salary"]}
	]`))
	require.NoError(t, err)
	return rules
}

func registry() *accounts.Registry {
	return accounts.NewRegistry(
		[]model.Account{{Name: "Savings-HDFC"}},
		[]model.Account{{Name: "CC-HDFC"}},
	)
}

func newTestPipeline(t *testing.T, src *fakeSource, l *fakeLedger, opts Options) *Pipeline {
	t.Helper()
	profiles := map[string]model.ParsingProfile{"bank-hdfc": hdfc(), "cc-hdfc": hdfc()}
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	return New(src, l, registry(), profiles, testRules(t), opts)
}

var stmtHeader = []string{"Tran Date", "PARTICULARS", "DR", "CR"}

func standardFixture() (*fakeSource, *fakeLedger) {
	src := newFakeSource()
	src.add("bank-Savings-HDFC-2024.csv", [][]string{
		{"HDFC BANK", "", "", ""},
		stmtHeader,
		{"03-01-2024", "SALARY ACME", "", "85000.00"},
		{"10-01-2024", "ZOMATO ORDER", "249.00", ""},
		{"12-01-2024", "NEFT FROM X", "", "100.00"},
	})
	src.add("bank-Savings-HDFC-2023.csv", [][]string{stmtHeader, {"05-06-2023", "OLD", "1.00", ""}})
	src.add("cc-CC-HDFC-2024-01.csv", [][]string{stmtHeader, {"05-01-2024", "ZOMATO", "100.00", ""}})
	src.add("notes.csv", [][]string{{"ignore me"}})

	l := newFakeLedger()
	l.seed(model.LogBank, tx(3, "SALARY ACME", "85000", "Income", "Savings-HDFC"))
	return src, l
}

func TestRunNormal(t *testing.T) {
	src, l := standardFixture()
	p := newTestPipeline(t, src, l, Options{})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Added[model.LogBank])
	assert.Equal(t, 1, rep.Added[model.LogCreditCard])
	assert.Equal(t, 1, rep.Uncategorized)
	assert.True(t, rep.Changed())
	assert.NotEmpty(t, rep.RunID)

	bank := l.txns(t, model.LogBank)
	require.Len(t, bank, 3)
	assert.Equal(t, "SALARY ACME", bank[0].Description)
	assert.Equal(t, "ZOMATO ORDER", bank[1].Description)
	assert.Equal(t, "Food", bank[1].Category)
	assert.True(t, decimal.NewFromInt(-249).Equal(bank[1].Amount))
	assert.Equal(t, model.DefaultCategory, bank[2].Category)

	cc := l.txns(t, model.LogCreditCard)
	require.Len(t, cc, 1)
	assert.Equal(t, "Food", cc[0].Category)
	assert.Equal(t, "CC-HDFC", cc[0].Account)

	assert.NotContains(t, src.fetched, "bank-Savings-HDFC-2023.csv", "statement period already in ledger")
	assert.NotContains(t, src.fetched, "notes.csv")
	assert.Empty(t, src.marked, "moving processed files is off")

	var actions []string
	for _, e := range rep.Entries {
		actions = append(actions, e.Action)
		assert.Equal(t, rep.RunID, e.RunID)
	}
	assert.Equal(t, []string{"append", "append"}, actions)
}

func TestRunNormal_SecondRunAddsNothing(t *testing.T) {
	src, l := standardFixture()
	p := newTestPipeline(t, src, l, Options{})

	_, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	appends := l.appends

	rep, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.False(t, rep.Changed())
	assert.Equal(t, appends, l.appends)
	assert.Len(t, l.txns(t, model.LogBank), 3)
}

func TestRunNormal_DryRun(t *testing.T) {
	src, l := standardFixture()
	p := newTestPipeline(t, src, l, Options{DryRun: true})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.False(t, rep.Changed())
	assert.Zero(t, l.appends)
	assert.Len(t, l.txns(t, model.LogBank), 1)
	assert.Equal(t, "dry-run", rep.Entries[0].Action)
}

func TestRunNormal_MovesProcessedFiles(t *testing.T) {
	src, l := standardFixture()
	p := newTestPipeline(t, src, l, Options{MoveProcessed: true})

	_, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bank-Savings-HDFC-2024.csv", "cc-CC-HDFC-2024-01.csv"}, src.marked)
}

func TestRunNormal_BrokenStatementDoesNotStopOthers(t *testing.T) {
	src, l := standardFixture()
	src.add("bank-Savings-HDFC-2025.csv", [][]string{{"foo", "bar"}, {"1", "2"}})
	p := newTestPipeline(t, src, l, Options{})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.Error(t, err)
	assert.ErrorIs(t, err, statement.ErrNoDateColumn)
	assert.ErrorContains(t, err, "bank-Savings-HDFC-2025.csv")
	assert.Equal(t, 2, rep.Added[model.LogBank])
	assert.Equal(t, 1, rep.Added[model.LogCreditCard])
	assert.Equal(t, "error", rep.Entries[len(rep.Entries)-1].Action)
}

func TestRunNormal_SourceFailureSkipsOnlyThatLedger(t *testing.T) {
	src, l := standardFixture()
	src.failIDs["bank-Savings-HDFC-2024.csv"] = true
	p := newTestPipeline(t, src, l, Options{})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend unavailable")
	assert.Zero(t, rep.Added[model.LogBank])
	assert.Equal(t, 1, rep.Added[model.LogCreditCard])
}

func TestRunNormal_MissingProfileSkipsStatement(t *testing.T) {
	src, l := standardFixture()
	p := New(src, l, registry(), map[string]model.ParsingProfile{"cc-hdfc": hdfc()}, testRules(t), Options{Workers: 1})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.Zero(t, rep.Added[model.LogBank])
	assert.Equal(t, 1, rep.Added[model.LogCreditCard])
}

func TestRunNormal_SubCentAmountIsRoundedNotRejected(t *testing.T) {
	src := newFakeSource()
	src.add("bank-Savings-HDFC-2024.csv", [][]string{
		stmtHeader,
		{"03-01-2024", "SALARY ACME", "", "85000.00"},
		{"04-01-2024", "FX MARKUP", "12.3456", ""},
	})
	l := newFakeLedger()
	p := newTestPipeline(t, src, l, Options{})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Added[model.LogBank])

	bank := l.txns(t, model.LogBank)
	require.Len(t, bank, 2)
	assert.Equal(t, "SALARY ACME", bank[0].Description)
	assert.Equal(t, "-12.35", bank[1].Amount.StringFixed(2))

	// The rounded row is in the ledger, so the next run has nothing to add.
	rep, err = p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.False(t, rep.Changed())
}

func TestRunNormal_DateCellsWithTime(t *testing.T) {
	src := newFakeSource()
	src.add("bank-Savings-HDFC-2024.csv", [][]string{
		stmtHeader,
		{"03-01-2024 10:15", "SALARY ACME", "", "85000.00"},
		{"10.01.2024", "ZOMATO ORDER", "249.00", ""},
	})
	l := newFakeLedger()
	p := newTestPipeline(t, src, l, Options{})

	rep, err := p.Run(context.Background(), ModeNormal)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Added[model.LogBank])

	bank := l.txns(t, model.LogBank)
	require.Len(t, bank, 2)
	assert.Equal(t, day(3), bank[0].Date)
	assert.Equal(t, day(10), bank[1].Date)
}

func TestRunRecategorize(t *testing.T) {
	l := newFakeLedger()
	l.seed(model.LogBank,
		tx(3, "SALARY ACME", "85000", "Income", "Savings-HDFC"),
		tx(4, "ZOMATO ORDER", "-249", model.DefaultCategory, "Savings-HDFC"),
		tx(5, "ZOMATO ORDER", "-99", "Treats", "Savings-HDFC"),
	)
	l.seed(model.LogCreditCard, tx(6, "MYSTERY", "-10", model.DefaultCategory, "CC-HDFC"))
	p := newTestPipeline(t, newFakeSource(), l, Options{})

	rep, err := p.Run(context.Background(), ModeRecategorize)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Written[model.LogBank])
	assert.Equal(t, 1, rep.Written[model.LogCreditCard])
	assert.Equal(t, 1, rep.Uncategorized)

	bank := l.txns(t, model.LogBank)
	require.Len(t, bank, 3)
	assert.Equal(t, "Food", bank[1].Category)
	assert.Equal(t, "Treats", bank[2].Category, "categorized rows are left alone")
	assert.Equal(t, model.DefaultCategory, l.txns(t, model.LogCreditCard)[0].Category)
}

func TestRunRecategorize_UnconfiguredAccountAborts(t *testing.T) {
	l := newFakeLedger()
	l.seed(model.LogBank,
		tx(4, "ZOMATO ORDER", "-249", model.DefaultCategory, "Savings-HDFC"),
		tx(5, "ZOMATO", "-1", model.DefaultCategory, "Old-Account"),
	)
	p := newTestPipeline(t, newFakeSource(), l, Options{})

	_, err := p.Run(context.Background(), ModeRecategorize)
	require.ErrorContains(t, err, "Old-Account")
	assert.Zero(t, l.clears)
}

func TestRunLearn(t *testing.T) {
	color.NoColor = true
	l := newFakeLedger()
	l.seed(model.LogBank,
		tx(1, "ZOMATO ORDER 1", "-100", "Food", "Savings-HDFC"),
		tx(2, "ZOMATO ORDER 2", "-200", "Food", "Savings-HDFC"),
		tx(3, "ZOMATO ORDER 3", "-300", "Food", "Savings-HDFC"),
		tx(4, "SALARY ACME", "1000", "Income", "Savings-HDFC"),
		tx(5, "SALARY ACME", "1000", "Income", "Savings-HDFC"),
		tx(6, "SALARY ACME", "1001", "Income", "Savings-HDFC"),
		tx(7, "ZOMATO ORDER 999", "-50", model.DefaultCategory, "Savings-HDFC"),
	)
	var out bytes.Buffer
	p := newTestPipeline(t, newFakeSource(), l, Options{}).WithOutput(&out)

	rep, err := p.Run(context.Background(), ModeLearn)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Suggestions)
	assert.False(t, rep.Changed())
	assert.Zero(t, l.appends+l.clears)

	text := out.String()
	assert.Contains(t, text, "# Suggestion for Category: Food (DEBIT)")
	assert.Contains(t, text, "# Suggestion for Category: Income (CREDIT)")
	assert.Contains(t, text, `"zomato"`)
	assert.Contains(t, text, "-> Food")
}

func TestRunBackupRestore(t *testing.T) {
	l := newFakeLedger()
	l.seed(model.LogBank, tx(3, "SALARY ACME", "85000", "Income", "Savings-HDFC"))
	l.seed(model.LogCreditCard, tx(5, "ZOMATO", "-100", "Food", "CC-HDFC"))
	b := &fakeBackup{}
	p := newTestPipeline(t, newFakeSource(), l, Options{}).WithBackup(b)

	rep, err := p.Run(context.Background(), ModeBackup)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.BackedUp)
	require.Len(t, b.stored, 2)

	l.rows = map[model.LogType][][]string{}
	rep, err = p.Run(context.Background(), ModeRestore)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Written[model.LogBank])
	assert.Equal(t, 1, rep.Written[model.LogCreditCard])
	assert.Equal(t, "SALARY ACME", l.txns(t, model.LogBank)[0].Description)
	assert.Equal(t, "ZOMATO", l.txns(t, model.LogCreditCard)[0].Description)
}

func TestRunBackup_DryRunLeavesStoreAlone(t *testing.T) {
	l := newFakeLedger()
	l.seed(model.LogBank, tx(3, "SALARY ACME", "85000", "Income", "Savings-HDFC"))
	b := &fakeBackup{}
	p := newTestPipeline(t, newFakeSource(), l, Options{DryRun: true}).WithBackup(b)

	rep, err := p.Run(context.Background(), ModeBackup)
	require.NoError(t, err)
	assert.Empty(t, b.stored)
	assert.Zero(t, rep.BackedUp)
	assert.False(t, rep.Changed())
	assert.Equal(t, "dry-run", rep.Entries[0].Action)
	assert.Equal(t, 1, rep.Entries[0].Count)
}

func TestRunBackup_NotConfigured(t *testing.T) {
	p := newTestPipeline(t, newFakeSource(), newFakeLedger(), Options{})
	_, err := p.Run(context.Background(), ModeBackup)
	assert.ErrorIs(t, err, ErrNoBackup)
	_, err = p.Run(context.Background(), ModeRestore)
	assert.ErrorIs(t, err, ErrNoBackup)
}

func TestRun_UnknownMode(t *testing.T) {
	p := newTestPipeline(t, newFakeSource(), newFakeLedger(), Options{})
	rep, err := p.Run(context.Background(), Mode("sideways"))
	require.Error(t, err)
	assert.NotNil(t, rep)
}
