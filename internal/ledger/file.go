package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gajana-dev/gajana/internal/model"
)

// FileLedger keeps one CSV file per log type in dir.
type FileLedger struct {
	dir string
}

// NewFileLedger creates a FileLedger rooted at dir. Files are created on
// first write.
func NewFileLedger(dir string) *FileLedger {
	return &FileLedger{dir: dir}
}

// Path returns the CSV file backing logType.
func (l *FileLedger) Path(logType model.LogType) string {
	return filepath.Join(l.dir, string(logType)+".csv")
}

// TransactionLog returns the header and every data row. A missing file is
// an empty ledger.
func (l *FileLedger) TransactionLog(_ context.Context, logType model.LogType) ([][]string, error) {
	path := l.Path(logType)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return rows, nil
}

// AppendTransactions appends rows, writing the header first if the file is
// new.
func (l *FileLedger) AppendTransactions(_ context.Context, logType model.LogType, rows [][]string) error {
	path := l.Path(logType)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if fi, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) || (err == nil && fi.Size() == 0) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		err = WriteRows(f, rows)
	} else {
		err = AppendRows(f, rows)
	}
	if err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// ClearRange drops every data row, keeping the header.
func (l *FileLedger) ClearRange(_ context.Context, logType model.LogType) error {
	return l.replace(logType, nil)
}

// WriteTransactions replaces the data rows with rows.
func (l *FileLedger) WriteTransactions(_ context.Context, logType model.LogType, rows [][]string) error {
	return l.replace(logType, rows)
}

// replace rewrites the ledger through a temporary file so a failed write
// never leaves a truncated ledger behind.
func (l *FileLedger) replace(logType model.LogType, rows [][]string) error {
	path := l.Path(logType)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+string(logType)+"-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("creating temp ledger: %w", err)
	}

	if err := WriteRows(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
