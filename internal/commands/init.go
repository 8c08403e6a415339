package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gajana-dev/gajana/internal/config"
	"github.com/gajana-dev/gajana/internal/gitops"
	"github.com/gajana-dev/gajana/internal/model"
)

// sampleProfile documents the profile format with a working HDFC savings
// export layout.
const sampleProfile = `# Parsing profile for HDFC bank statements. The file name is the profile
# key: "<bank|cc>-<second segment of the account name>", lower-cased.
header_patterns:
  - ["Tran Date", "PARTICULARS", "DR", "CR"]
column_map:
  Tran Date: date
  PARTICULARS: description
  DR: debit
  CR: credit
date_formats: ["%d-%m-%Y", "%d/%m/%Y"]
`

const gitignore = "secrets/\nimport/\ndata/\n*.db\n"

func newInitCommand() *cobra.Command {
	var bank, cc []string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new gajana workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, bank, cc)
		},
	}

	cmd.Flags().StringSliceVar(&bank, "bank", nil, "bank account names, e.g. Savings-HDFC")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "credit card account names, e.g. CC-HDFC")

	return cmd
}

func runInit(dir string, bank, cc []string) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default()
	for _, name := range bank {
		cfg.Accounts.Bank = append(cfg.Accounts.Bank, model.Account{Name: name})
	}
	for _, name := range cc {
		cfg.Accounts.CC = append(cfg.Accounts.CC, model.Account{Name: name})
	}

	dirs := []string{
		filepath.Dir(cfg.RulesFile),
		cfg.ProfilesDir,
		cfg.Statements.Dir,
		cfg.Ledger.Dir,
		"logs",
		filepath.Dir(cfg.Backup.DBPath),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	files := []struct {
		path    string
		content string
	}{
		{cfg.RulesFile, "[]\n"},
		{filepath.Join(cfg.ProfilesDir, "bank-hdfc.yaml"), sampleProfile},
		{".gitignore", gitignore},
		{filepath.Join("logs", ".gitkeep"), ""},
		{filepath.Join(cfg.Ledger.Dir, ".gitkeep"), ""},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.path), []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(dir, "init: gajana workspace", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized gajana workspace at %s (%s)\n", dir, hash)
	return nil
}
