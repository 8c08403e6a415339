// Package runlog keeps an audit trail of every gajana run in
// logs/run-log.csv.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Mode      string
	Action    string
	Details   string
	Count     int
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,run_id,mode,action,details,count"

const (
	numFields    = 6
	logDir       = "logs"
	logFile      = "logs/run-log.csv"
	colTimestamp = 0
	colRunID     = 1
	colMode      = 2
	colAction    = 3
	colDetails   = 4
	colCount     = 5
)

// Run collects the entries of a single run. It is safe for concurrent use.
type Run struct {
	ID   string
	Mode string

	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewRun starts a run with a fresh random ID.
func NewRun(mode string) *Run {
	return &Run{ID: uuid.NewString(), Mode: mode, now: time.Now}
}

// Record adds an entry stamped with the current time.
func (r *Run) Record(action, details string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Timestamp: r.now().UTC().Truncate(time.Second),
		RunID:     r.ID,
		Mode:      r.Mode,
		Action:    action,
		Details:   details,
		Count:     count,
	})
}

// Entries returns a copy of the recorded entries.
func (r *Run) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colMode] = e.Mode
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colCount] = strconv.Itoa(e.Count)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	count, err := strconv.Atoi(record[colCount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing count %q: %w", record[colCount], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Mode:      record[colMode],
		Action:    record[colAction],
		Details:   record[colDetails],
		Count:     count,
	}, nil
}

// Path returns the run log location under repoRoot.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logFile)
}

// Append writes entries to <repoRoot>/logs/run-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/run-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
