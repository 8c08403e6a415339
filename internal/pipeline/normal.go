package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gajana-dev/gajana/internal/accounts"
	"github.com/gajana-dev/gajana/internal/ledger"
	"github.com/gajana-dev/gajana/internal/logger"
	"github.com/gajana-dev/gajana/internal/matcher"
	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/runlog"
	"github.com/gajana-dev/gajana/internal/statement"
)

// job is one statement file selected for a ledger.
type job struct {
	file    model.StatementFile
	account string
	profile model.ParsingProfile
	cutoff  time.Time // latest ledger date of the account, zero if none
}

// fetched is the outcome of one job.
type fetched struct {
	txns []model.Transaction
	err  error
}

// runNormal appends new statement transactions to both ledgers. A failure
// in one ledger is logged and the other still runs.
func (p *Pipeline) runNormal(ctx context.Context, run *runlog.Run, rep *Report) error {
	var errs []error
	for _, lt := range model.LogTypes {
		if err := p.processType(ctx, lt, run, rep); err != nil {
			logger.FromContext(ctx).Error().Err(err).Str("log_type", string(lt)).Msg("processing failed")
			errs = append(errs, err)
		}
	}
	total := 0
	for _, n := range rep.Added {
		total += n
	}
	logger.FromContext(ctx).Info().Int("count", total).Msg("normal mode finished")
	return errors.Join(errs...)
}

func (p *Pipeline) processType(ctx context.Context, logType model.LogType, run *runlog.Run, rep *Report) error {
	log := logger.FromContext(ctx).With().Str("log_type", string(logType)).Logger()
	ctx = logger.WithContext(ctx, log)

	old, err := p.loadLedger(ctx, logType)
	if err != nil {
		return err
	}

	jobs, err := p.selectStatements(ctx, logType, accounts.LatestByAccount(old))
	if err != nil {
		return err
	}
	results, err := p.fetchAll(ctx, jobs)
	if err != nil {
		return err
	}

	var candidates []model.Transaction
	var fileErrs []error
	var used []model.StatementFile
	for i, r := range results {
		if r.err != nil {
			fileErrs = append(fileErrs, r.err)
			continue
		}
		candidates = append(candidates, r.txns...)
		used = append(used, jobs[i].file)
	}

	res := matcher.FindNew(old, candidates)
	if res.BaselineErr != nil {
		log.Error().Err(res.BaselineErr).Msg("ledger has unkeyable rows, every statement transaction is treated as new")
	}
	for _, s := range res.Skipped {
		log.Warn().Err(s.Err).Int("index", s.Index).Msg("skipping statement transaction without identity key")
	}
	log.Info().
		Int("candidates", len(candidates)).
		Int("duplicates", res.Duplicates).
		Int("count", len(res.New)).
		Msg("matched against ledger")

	if len(res.New) == 0 {
		run.Record("append", fmt.Sprintf("%s: no new transactions", logType), 0)
		return errors.Join(fileErrs...)
	}

	summary := p.categorize.Categorize(res.New)
	p.logSummary(ctx, logType, summary)
	rep.Uncategorized += summary.Uncategorized

	if err := ledger.Check(res.New, logType, p.accounts); err != nil {
		return errors.Join(append(fileErrs, err)...)
	}

	if p.opts.DryRun {
		log.Info().Int("count", len(res.New)).Msg("dry run, skipping append")
		run.Record("dry-run", fmt.Sprintf("%s: %d new transactions not appended", logType, len(res.New)), len(res.New))
		return errors.Join(fileErrs...)
	}

	if err := p.ledger.AppendTransactions(ctx, logType, ledger.FormatRows(res.New)); err != nil {
		return errors.Join(append(fileErrs, fmt.Errorf("appending to %s ledger: %w", logType, err))...)
	}
	rep.Added[logType] = len(res.New)
	run.Record("append", fmt.Sprintf("%s: %d new transactions, %d uncategorized", logType, len(res.New), summary.Uncategorized), len(res.New))
	log.Info().Int("count", len(res.New)).Msg("appended to ledger")

	p.markProcessed(ctx, used)
	return errors.Join(fileErrs...)
}

// selectStatements picks the files of a ledger whose name carries the log
// type and a configured account, and whose statement period is not already
// covered by the ledger.
func (p *Pipeline) selectStatements(ctx context.Context, logType model.LogType, latest map[string]time.Time) ([]job, error) {
	log := logger.FromContext(ctx)

	files, err := p.source.ListStatementFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing statements: %w", err)
	}
	log.Info().Int("count", len(files)).Msg("scanning statement files")

	names := p.accounts.Names(logType)
	var jobs []job
	for _, f := range files {
		if f.ID == "" || !strings.Contains(strings.ToLower(f.Name), string(logType)) {
			continue
		}
		account, end, ok := statement.InterpretFileName(f.Name, names, logType)
		if !ok {
			continue
		}
		if end.IsZero() {
			log.Warn().Str("file", f.Name).Msg("no statement end date in file name")
		}

		last, seen := latest[account]
		if seen && !end.IsZero() && !last.Before(end) {
			log.Debug().Str("file", f.Name).Str("account", account).Msg("statement already covered by ledger")
			continue
		}

		key := p.accounts.ProfileKey(logType, account)
		profile, ok := p.profiles[strings.ToLower(key)]
		if !ok {
			log.Warn().Str("file", f.Name).Str("profile", key).Msg("no parsing profile, skipping statement")
			continue
		}
		jobs = append(jobs, job{file: f, account: account, profile: profile, cutoff: last})
	}
	return jobs, nil
}

// fetchAll fetches and standardizes the jobs concurrently. Results are in
// job order. Source failures abort the whole fetch; a statement that cannot
// be standardized only fails its own result.
func (p *Pipeline) fetchAll(ctx context.Context, jobs []job) ([]fetched, error) {
	results := make([]fetched, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			txns, err := p.fetchOne(gctx, j)
			if errors.Is(err, errSource) {
				return err
			}
			results[i] = fetched{txns: txns, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

var errSource = errors.New("statement source")

func (p *Pipeline) fetchOne(ctx context.Context, j job) ([]model.Transaction, error) {
	log := logger.FromContext(ctx).With().Str("file", j.file.Name).Str("account", j.account).Logger()

	sheet, err := p.source.FirstSheetName(ctx, j.file.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errSource, j.file.Name, err)
	}
	if sheet == "" {
		log.Warn().Msg("no visible sheet, skipping statement")
		return nil, nil
	}

	rows, err := p.source.GetSheetData(ctx, j.file.ID, sheet, p.opts.Range)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errSource, j.file.Name, err)
	}
	if len(rows) == 0 {
		log.Warn().Msg("statement has no data")
		return nil, nil
	}

	res, err := statement.Standardize(rows, j.profile, j.account)
	if err != nil {
		return nil, fmt.Errorf("statement %s (profile %s): %w", j.file.Name, j.profile.Name, err)
	}
	if !res.HeaderDetected {
		log.Warn().Msg("header row not detected, assumed first row")
	}
	for _, issue := range res.Issues {
		if issue.Kind == statement.IssueHeaderNotDetected {
			continue
		}
		log.Warn().Str("issue", issue.String()).Msg("statement row problem")
	}

	txns := res.Transactions
	if !j.cutoff.IsZero() {
		kept := txns[:0]
		for _, txn := range txns {
			if txn.Date.After(j.cutoff) {
				kept = append(kept, txn)
			}
		}
		log.Debug().Int("count", len(txns)-len(kept)).Msg("dropped transactions already covered by ledger")
		txns = kept
	}
	log.Info().Int("count", len(txns)).Msg("parsed statement")
	return txns, nil
}

func (p *Pipeline) markProcessed(ctx context.Context, files []model.StatementFile) {
	marker, ok := p.source.(ProcessedMarker)
	if !p.opts.MoveProcessed || !ok {
		return
	}
	log := logger.FromContext(ctx)
	for _, f := range files {
		if err := marker.MarkProcessed(f); err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("could not mark statement processed")
		}
	}
}
