// Package pipeline runs gajana's modes: it reads statements and ledgers
// through narrow interfaces and hands transactions to the core packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gajana-dev/gajana/internal/accounts"
	"github.com/gajana-dev/gajana/internal/categorize"
	"github.com/gajana-dev/gajana/internal/ledger"
	"github.com/gajana-dev/gajana/internal/logger"
	"github.com/gajana-dev/gajana/internal/matcher"
	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/runlog"
)

// StatementSource lists statement exports and reads their cells.
type StatementSource interface {
	ListStatementFiles(ctx context.Context) ([]model.StatementFile, error)
	GetSheetData(ctx context.Context, sourceID, sheetName, rangeSpec string) ([][]string, error)
	FirstSheetName(ctx context.Context, sourceID string) (string, error)
}

// ProcessedMarker is implemented by sources that can file away a statement
// once its transactions are in the ledger.
type ProcessedMarker interface {
	MarkProcessed(file model.StatementFile) error
}

// Ledger stores the bank and credit card transaction logs as rows in
// ledger.Header layout.
type Ledger interface {
	TransactionLog(ctx context.Context, logType model.LogType) ([][]string, error)
	AppendTransactions(ctx context.Context, logType model.LogType, rows [][]string) error
	ClearRange(ctx context.Context, logType model.LogType) error
	WriteTransactions(ctx context.Context, logType model.LogType, rows [][]string) error
}

// Backup snapshots and restores every ledger transaction.
type Backup interface {
	Backup(ctx context.Context, txns []model.Transaction) (int, error)
	Restore(ctx context.Context) ([]model.Transaction, error)
}

// Mode selects what a run does.
type Mode string

const (
	ModeNormal       Mode = "normal"
	ModeRecategorize Mode = "recategorize"
	ModeLearn        Mode = "learn"
	ModeBackup       Mode = "backup"
	ModeRestore      Mode = "restore"
)

// ErrNoBackup is returned by the backup and restore modes when the pipeline
// was built without a Backup.
var ErrNoBackup = errors.New("no backup store configured")

// Options tune a Pipeline.
type Options struct {
	Range         string // cell range read from each statement
	Workers       int    // statements fetched concurrently
	DryRun        bool   // compute and log, never write the ledger or backup store
	MoveProcessed bool   // hand fetched statements to ProcessedMarker after a write
}

// Report summarizes a run.
type Report struct {
	Mode          Mode
	RunID         string
	Added         map[model.LogType]int // appended in normal mode
	Written       map[model.LogType]int // overwritten by recategorize or restore
	Uncategorized int
	BackedUp      int
	Suggestions   int
	Entries       []runlog.Entry
}

// Changed reports whether the run wrote to the ledger.
func (r *Report) Changed() bool {
	for _, n := range r.Added {
		if n > 0 {
			return true
		}
	}
	for _, n := range r.Written {
		if n > 0 {
			return true
		}
	}
	return false
}

// Pipeline wires a statement source and a ledger to the core packages.
type Pipeline struct {
	source     StatementSource
	ledger     Ledger
	backup     Backup
	accounts   *accounts.Registry
	profiles   map[string]model.ParsingProfile
	categorize *categorize.Categorizer
	opts       Options
	out        io.Writer
}

// New creates a Pipeline. profiles is keyed by lower-cased profile name.
func New(source StatementSource, l Ledger, reg *accounts.Registry, profiles map[string]model.ParsingProfile, rules []categorize.Rule, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Range == "" {
		opts.Range = "A:Z"
	}
	return &Pipeline{
		source:     source,
		ledger:     l,
		accounts:   reg,
		profiles:   profiles,
		categorize: categorize.New(rules),
		opts:       opts,
		out:        os.Stdout,
	}
}

// WithBackup sets the store used by the backup and restore modes.
func (p *Pipeline) WithBackup(b Backup) *Pipeline {
	p.backup = b
	return p
}

// WithOutput redirects the learn-mode report, stdout by default.
func (p *Pipeline) WithOutput(w io.Writer) *Pipeline {
	p.out = w
	return p
}

// Run executes one mode. The returned report is non-nil even when err is
// set, so partial progress can still be logged and committed.
func (p *Pipeline) Run(ctx context.Context, mode Mode) (*Report, error) {
	run := runlog.NewRun(string(mode))
	log := logger.FromContext(ctx).With().Str("run_id", run.ID).Str("mode", string(mode)).Logger()
	ctx = logger.WithContext(ctx, log)

	rep := &Report{
		Mode:    mode,
		RunID:   run.ID,
		Added:   map[model.LogType]int{},
		Written: map[model.LogType]int{},
	}
	log.Info().Bool("dry_run", p.opts.DryRun).Msg("run started")

	var err error
	switch mode {
	case ModeNormal:
		err = p.runNormal(ctx, run, rep)
	case ModeRecategorize:
		err = p.runRecategorize(ctx, run, rep)
	case ModeLearn:
		err = p.runLearn(ctx, run, rep)
	case ModeBackup:
		err = p.runBackup(ctx, run, rep)
	case ModeRestore:
		err = p.runRestore(ctx, run, rep)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}

	if err != nil {
		run.Record("error", err.Error(), 0)
		log.Error().Err(err).Msg("run failed")
	} else {
		log.Info().Msg("run finished")
	}
	rep.Entries = run.Entries()
	return rep, err
}

// loadLedger reads and decodes one ledger, sorted by identity key order.
func (p *Pipeline) loadLedger(ctx context.Context, logType model.LogType) ([]model.Transaction, error) {
	log := logger.FromContext(ctx).With().Str("log_type", string(logType)).Logger()

	rows, err := p.ledger.TransactionLog(ctx, logType)
	if err != nil {
		return nil, fmt.Errorf("reading %s ledger: %w", logType, err)
	}
	if len(rows) <= 1 {
		log.Warn().Msg("ledger is empty")
		return nil, nil
	}

	res, err := ledger.Decode(rows)
	if err != nil {
		return nil, fmt.Errorf("%s ledger: %w", logType, err)
	}
	for _, issue := range res.Issues {
		log.Warn().Str("issue", issue.String()).Msg("ledger row problem")
	}

	txns := res.Transactions
	matcher.Sort(txns)
	if n := len(txns); n > 0 {
		log.Info().Int("count", n).Time("latest", txns[n-1].Date).Msg("loaded ledger")
	}
	return txns, nil
}

// loadAll reads both ledgers.
func (p *Pipeline) loadAll(ctx context.Context) ([]model.Transaction, error) {
	var all []model.Transaction
	for _, lt := range model.LogTypes {
		txns, err := p.loadLedger(ctx, lt)
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}
	matcher.Sort(all)
	return all, nil
}

// overwrite replaces a ledger's data rows with txns.
func (p *Pipeline) overwrite(ctx context.Context, logType model.LogType, txns []model.Transaction) (int, error) {
	log := logger.FromContext(ctx).With().Str("log_type", string(logType)).Logger()
	if len(txns) == 0 {
		log.Warn().Msg("nothing to write, ledger left as is")
		return 0, nil
	}

	matcher.Sort(txns)
	if err := ledger.Check(txns, logType, p.accounts); err != nil {
		return 0, err
	}
	if p.opts.DryRun {
		log.Info().Int("count", len(txns)).Msg("dry run, skipping overwrite")
		return 0, nil
	}

	if err := p.ledger.ClearRange(ctx, logType); err != nil {
		return 0, fmt.Errorf("clearing %s ledger: %w", logType, err)
	}
	if err := p.ledger.WriteTransactions(ctx, logType, ledger.FormatRows(txns)); err != nil {
		return 0, fmt.Errorf("writing %s ledger: %w", logType, err)
	}
	log.Info().Int("count", len(txns)).Msg("ledger overwritten")
	return len(txns), nil
}

// split partitions txns by ledger and refuses transactions of accounts
// that are not configured, since an overwrite would drop them.
func (p *Pipeline) split(txns []model.Transaction) (map[model.LogType][]model.Transaction, error) {
	byType, other := p.accounts.Split(txns)
	if len(other) > 0 {
		seen := map[string]bool{}
		var names []string
		for _, txn := range other {
			if !seen[txn.Account] {
				seen[txn.Account] = true
				names = append(names, txn.Account)
			}
		}
		return nil, fmt.Errorf("%d transactions belong to unconfigured accounts %q", len(other), names)
	}
	return byType, nil
}

func (p *Pipeline) logSummary(ctx context.Context, logType model.LogType, s categorize.Summary) {
	log := logger.FromContext(ctx)
	if s.NoRules {
		log.Warn().Str("log_type", string(logType)).Msg("no categorization rules loaded, everything is " + model.DefaultCategory)
	}
	if s.Uncategorized > 0 {
		log.Warn().
			Str("log_type", string(logType)).
			Int("count", s.Uncategorized).
			Int("processed", s.Processed).
			Msg("transactions left uncategorized")
	}
}
