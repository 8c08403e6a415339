package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gajana-dev/gajana/internal/model"
)

// FileName is the workspace configuration file.
const FileName = "gajana.yaml"

// Ledger backends.
const (
	BackendCSV    = "csv"
	BackendSheets = "sheets"
)

// Statement sources.
const (
	SourceLocal = "local"
	SourceDrive = "drive"
)

// Config represents the top-level gajana.yaml configuration.
type Config struct {
	Accounts    AccountsConfig   `yaml:"accounts"`
	Ledger      LedgerConfig     `yaml:"ledger"`
	Statements  StatementsConfig `yaml:"statements"`
	Sheets      SheetsConfig     `yaml:"sheets"`
	RulesFile   string           `yaml:"rules_file"`
	ProfilesDir string           `yaml:"profiles_dir"`
	Backup      BackupConfig     `yaml:"backup"`
	Log         LogConfig        `yaml:"log"`
	Git         GitConfig        `yaml:"git"`
}

// AccountsConfig lists the accounts of each ledger.
type AccountsConfig struct {
	Bank []model.Account `yaml:"bank"`
	CC   []model.Account `yaml:"cc"`
}

// LedgerConfig selects where ledgers are stored.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // "csv" or "sheets"
	Dir     string `yaml:"dir"`
}

// StatementsConfig selects where statement exports are read from.
type StatementsConfig struct {
	Source        string `yaml:"source"` // "local" or "drive"
	Dir           string `yaml:"dir"`
	Range         string `yaml:"range"`
	Workers       int    `yaml:"workers"`
	MoveProcessed bool   `yaml:"move_processed"`
}

// SheetsConfig configures the Google Sheets and Drive adapter.
type SheetsConfig struct {
	CredentialsFile string        `yaml:"credentials_file"`
	SpreadsheetID   string        `yaml:"spreadsheet_id"`
	DriveFolderID   string        `yaml:"drive_folder_id"`
	BankSheet       string        `yaml:"bank_sheet"`
	CCSheet         string        `yaml:"cc_sheet"`
	DataRange       string        `yaml:"data_range"`
	ClearRange      string        `yaml:"clear_range"`
	WriteStart      string        `yaml:"write_start"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
}

// BackupConfig controls the SQLite snapshot and its optional GCS copy.
type BackupConfig struct {
	DBPath    string `yaml:"db_path"`
	GCSBucket string `yaml:"gcs_bucket,omitempty"`
	GCSObject string `yaml:"gcs_object,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a gajana.yaml file from disk, filling unset keys with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendCSV, BackendSheets:
	default:
		return fmt.Errorf("ledger.backend %q: want %q or %q", c.Ledger.Backend, BackendCSV, BackendSheets)
	}
	switch c.Statements.Source {
	case SourceLocal, SourceDrive:
	default:
		return fmt.Errorf("statements.source %q: want %q or %q", c.Statements.Source, SourceLocal, SourceDrive)
	}
	if c.Statements.Workers < 1 {
		return fmt.Errorf("statements.workers must be at least 1, got %d", c.Statements.Workers)
	}
	if c.Sheets.MaxRetries < 0 {
		return fmt.Errorf("sheets.max_retries must not be negative, got %d", c.Sheets.MaxRetries)
	}
	if c.Ledger.Backend == BackendSheets && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required for the sheets backend")
	}
	if c.Statements.Source == SourceDrive && c.Sheets.DriveFolderID == "" {
		return fmt.Errorf("sheets.drive_folder_id is required for the drive source")
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Backend: BackendCSV,
			Dir:     "ledger",
		},
		Statements: StatementsConfig{
			Source:  SourceLocal,
			Dir:     "import",
			Range:   "A:Z",
			Workers: 4,
		},
		Sheets: SheetsConfig{
			CredentialsFile: "secrets/google.json",
			BankSheet:       "Bank transactions",
			CCSheet:         "CC Transactions",
			DataRange:       "B2:H",
			ClearRange:      "B3:H",
			WriteStart:      "B3",
			MaxRetries:      3,
			InitialBackoff:  5 * time.Second,
		},
		RulesFile:   "rules/matchers.json",
		ProfilesDir: "profiles",
		Backup: BackupConfig{
			DBPath: "data/gajana.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Gajana",
			AuthorEmail: "gajana@localhost",
		},
	}
}
