package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gajana-dev/gajana/internal/ledger"
	"github.com/gajana-dev/gajana/internal/logger"
	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/runlog"
)

// runRecategorize re-runs the rules over uncategorized ledger rows and
// overwrites both ledgers.
func (p *Pipeline) runRecategorize(ctx context.Context, run *runlog.Run, rep *Report) error {
	log := logger.FromContext(ctx)

	all, err := p.loadAll(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		log.Warn().Msg("no ledger transactions to recategorize")
		return nil
	}

	var idx []int
	var pending []model.Transaction
	for i, txn := range all {
		if txn.IsUncategorized() {
			idx = append(idx, i)
			pending = append(pending, txn)
		}
	}
	if len(pending) == 0 {
		log.Info().Msg("no transactions need recategorization")
		run.Record("recategorize", "nothing uncategorized", 0)
		return nil
	}

	log.Info().Int("count", len(pending)).Msg("recategorizing")
	summary := p.categorize.Categorize(pending)
	for k, i := range idx {
		all[i].Category = pending[k].Category
	}
	p.logSummary(ctx, "", summary)
	rep.Uncategorized = summary.Uncategorized

	byType, err := p.split(all)
	if err != nil {
		return fmt.Errorf("recategorize: %w", err)
	}
	if err := p.overwriteAll(ctx, byType, rep); err != nil {
		return err
	}
	run.Record("recategorize", fmt.Sprintf("%d of %d categorized", summary.Categorized, summary.Processed), summary.Categorized)
	return nil
}

// runBackup snapshots every ledger transaction into the backup store.
func (p *Pipeline) runBackup(ctx context.Context, run *runlog.Run, rep *Report) error {
	if p.backup == nil {
		return ErrNoBackup
	}
	all, err := p.loadAll(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		logger.FromContext(ctx).Warn().Msg("no ledger transactions to back up")
		return nil
	}
	if p.opts.DryRun {
		run.Record("dry-run", fmt.Sprintf("%d transactions would be backed up", len(all)), len(all))
		logger.FromContext(ctx).Info().Int("count", len(all)).Msg("dry run, backup store left as is")
		return nil
	}
	n, err := p.backup.Backup(ctx, all)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	rep.BackedUp = n
	run.Record("backup", fmt.Sprintf("%d transactions upserted", n), n)
	logger.FromContext(ctx).Info().Int("count", n).Msg("backup finished")
	return nil
}

// runRestore overwrites both ledgers with the backup store's contents.
func (p *Pipeline) runRestore(ctx context.Context, run *runlog.Run, rep *Report) error {
	if p.backup == nil {
		return ErrNoBackup
	}
	txns, err := p.backup.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if len(txns) == 0 {
		logger.FromContext(ctx).Warn().Msg("backup is empty, ledgers left as is")
		return nil
	}

	byType, err := p.split(txns)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := p.overwriteAll(ctx, byType, rep); err != nil {
		return err
	}
	run.Record("restore", fmt.Sprintf("%d transactions restored", len(txns)), len(txns))
	return nil
}

// overwriteAll validates every ledger before touching any of them.
func (p *Pipeline) overwriteAll(ctx context.Context, byType map[model.LogType][]model.Transaction, rep *Report) error {
	var errs []error
	for _, lt := range model.LogTypes {
		if err := ledger.Check(byType[lt], lt, p.accounts); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, lt := range model.LogTypes {
		n, err := p.overwrite(ctx, lt, byType[lt])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rep.Written[lt] = n
	}
	return errors.Join(errs...)
}
