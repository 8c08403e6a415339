package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gajana-dev/gajana/internal/accounts"
	"github.com/gajana-dev/gajana/internal/backup"
	"github.com/gajana-dev/gajana/internal/categorize"
	"github.com/gajana-dev/gajana/internal/config"
	"github.com/gajana-dev/gajana/internal/gitops"
	"github.com/gajana-dev/gajana/internal/importer"
	"github.com/gajana-dev/gajana/internal/ledger"
	"github.com/gajana-dev/gajana/internal/logger"
	"github.com/gajana-dev/gajana/internal/pipeline"
	"github.com/gajana-dev/gajana/internal/runlog"
	"github.com/gajana-dev/gajana/internal/sheets"
)

type runOptions struct {
	repo         string
	configPath   string
	dryRun       bool
	recategorize bool
	learn        bool
	backupDB     bool
	restoreDB    bool
}

func (o runOptions) mode() pipeline.Mode {
	switch {
	case o.recategorize:
		return pipeline.ModeRecategorize
	case o.learn:
		return pipeline.ModeLearn
	case o.backupDB:
		return pipeline.ModeBackup
	case o.restoreDB:
		return pipeline.ModeRestore
	default:
		return pipeline.ModeNormal
	}
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import new statement transactions into the ledgers",
		Long: `Without a mode flag, run reads every statement export, keeps the
transactions the ledgers do not have yet, categorizes them and appends them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(opts.repo)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			opts.repo = absDir
			return runRun(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.repo, "repo", ".", "workspace directory")
	f.StringVar(&opts.configPath, "config", config.FileName, "config file, relative to the workspace")
	f.BoolVar(&opts.dryRun, "dry-run", false, "compute and log, but do not write the ledgers")
	f.BoolVar(&opts.recategorize, "recategorize-only", false, "re-run the rules over "+`"Uncategorized"`+" ledger rows")
	f.BoolVar(&opts.learn, "learn-categories", false, "suggest rules from already categorized rows")
	f.BoolVar(&opts.backupDB, "backup-db", false, "back up both ledgers into the SQLite database")
	f.BoolVar(&opts.restoreDB, "restore-db", false, "overwrite both ledgers from the SQLite database")
	cmd.MarkFlagsMutuallyExclusive("recategorize-only", "learn-categories", "backup-db", "restore-db")

	return cmd
}

// workspace resolves configured paths against the workspace root.
type workspace struct {
	root string
	cfg  *config.Config
}

func (w workspace) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.root, p)
}

func runRun(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfgPath := opts.configPath
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(opts.repo, cfgPath)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx, log)
	ws := workspace{root: opts.repo, cfg: cfg}

	rules, err := loadRules(ws.path(cfg.RulesFile))
	if err != nil {
		return err
	}
	profiles, err := config.LoadProfiles(ws.path(cfg.ProfilesDir))
	if err != nil {
		return err
	}
	log.Debug().Int("rules", len(rules)).Int("profiles", len(profiles)).Msg("configuration loaded")

	source, store, err := ws.open(ctx)
	if err != nil {
		return err
	}

	reg := accounts.NewRegistry(cfg.Accounts.Bank, cfg.Accounts.CC)
	mode := opts.mode()
	p := pipeline.New(source, store, reg, profiles, rules, pipeline.Options{
		Range:         cfg.Statements.Range,
		Workers:       cfg.Statements.Workers,
		DryRun:        opts.dryRun,
		MoveProcessed: cfg.Statements.MoveProcessed,
	})

	var db *backup.SQLite
	if mode == pipeline.ModeBackup || mode == pipeline.ModeRestore {
		db, err = backup.Open(ws.path(cfg.Backup.DBPath))
		if err != nil {
			return err
		}
		defer db.Close()
		p.WithBackup(db)
	}

	rep, runErr := p.Run(ctx, mode)

	if runErr == nil && mode == pipeline.ModeBackup && cfg.Backup.GCSBucket != "" && !opts.dryRun {
		object := cfg.Backup.GCSObject
		if object == "" {
			object = filepath.Base(db.Path())
		}
		if err := backup.UploadFile(ctx, cfg.Backup.GCSBucket, object, db.Path()); err != nil {
			runErr = err
		} else {
			log.Info().Str("bucket", cfg.Backup.GCSBucket).Str("object", object).Msg("backup uploaded")
		}
	}

	if err := runlog.Append(ws.root, rep.Entries); err != nil {
		log.Error().Err(err).Msg("could not write run log")
	}
	if err := ws.commit(ctx, rep); err != nil {
		log.Error().Err(err).Msg("could not commit workspace")
	}
	return runErr
}

// open builds the statement source and the ledger. The Google client is
// shared when both live in Google.
func (w workspace) open(ctx context.Context) (pipeline.StatementSource, pipeline.Ledger, error) {
	var client *sheets.Client
	google := func() (*sheets.Client, error) {
		if client != nil {
			return client, nil
		}
		sc := w.cfg.Sheets
		sc.CredentialsFile = w.path(sc.CredentialsFile)
		c, err := sheets.New(ctx, sc)
		if err != nil {
			return nil, err
		}
		client = c
		return c, nil
	}

	var source pipeline.StatementSource
	switch w.cfg.Statements.Source {
	case config.SourceDrive:
		c, err := google()
		if err != nil {
			return nil, nil, err
		}
		source = c
	default:
		source = importer.New(w.path(w.cfg.Statements.Dir))
	}

	var store pipeline.Ledger
	switch w.cfg.Ledger.Backend {
	case config.BackendSheets:
		c, err := google()
		if err != nil {
			return nil, nil, err
		}
		store = c
	default:
		store = ledger.NewFileLedger(w.path(w.cfg.Ledger.Dir))
	}
	return source, store, nil
}

// commit records ledger changes and the run log in git.
func (w workspace) commit(ctx context.Context, rep *pipeline.Report) error {
	if !w.cfg.Git.AutoCommit || !rep.Changed() || !gitops.IsRepo(w.root) {
		return nil
	}

	paths := []string{"logs"}
	if w.cfg.Ledger.Backend == config.BackendCSV {
		paths = append(paths, w.cfg.Ledger.Dir)
	}

	var parts []string
	for lt, n := range rep.Added {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s added", n, lt))
		}
	}
	for lt, n := range rep.Written {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s rewritten", n, lt))
		}
	}
	slices.Sort(parts)
	msg := fmt.Sprintf("%s: %s", rep.Mode, strings.Join(parts, ", "))

	author := gitops.Author{Name: w.cfg.Git.AuthorName, Email: w.cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(w.root, msg, author, paths...)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info().Str("commit", hash).Msg(msg)
	return nil
}

// loadRules reads the categorization rules. A missing file means no rules.
func loadRules(path string) ([]categorize.Rule, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()

	rules, err := categorize.ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}
