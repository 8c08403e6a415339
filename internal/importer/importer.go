// Package importer serves statement exports from a local directory.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gajana-dev/gajana/internal/model"
)

// processedDir is the subdirectory processed statements are moved to.
const processedDir = "processed"

// Dir is a statement source backed by the CSV files of one directory.
type Dir struct {
	dir string
}

// New creates a Dir over dir. A missing directory has no statements.
func New(dir string) *Dir {
	return &Dir{dir: dir}
}

// ListStatementFiles returns the CSV files in the directory, sorted by
// name. The file path is the ID.
func (d *Dir) ListStatementFiles(ctx context.Context) ([]model.StatementFile, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []model.StatementFile
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		files = append(files, model.StatementFile{
			ID:   filepath.Join(d.dir, e.Name()),
			Name: e.Name(),
		})
	}
	return files, nil
}

// FirstSheetName returns the file's base name without extension. A CSV
// export has exactly one sheet.
func (d *Dir) FirstSheetName(_ context.Context, sourceID string) (string, error) {
	if _, err := os.Stat(sourceID); err != nil {
		return "", fmt.Errorf("stat %s: %w", sourceID, err)
	}
	base := filepath.Base(sourceID)
	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}

// GetSheetData reads the file's rows clipped to rangeSpec, an A1 range
// such as "A:Z" or "B2:H". The sheet name is ignored.
func (d *Dir) GetSheetData(_ context.Context, sourceID, _, rangeSpec string) ([][]string, error) {
	rng, err := ParseRange(rangeSpec)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(sourceID)
	if err != nil {
		return nil, fmt.Errorf("opening statement %s: %w", sourceID, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement %s: %w", sourceID, err)
	}
	return rng.Clip(records), nil
}

// MarkProcessed moves a statement into the processed/ subdirectory.
func (d *Dir) MarkProcessed(file model.StatementFile) error {
	dstDir := filepath.Join(d.dir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, file.Name)
	if err := os.Rename(file.ID, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", file.Name, err)
	}
	return nil
}
