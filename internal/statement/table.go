package statement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gajana-dev/gajana/internal/model"
)

const (
	headerScanRows = 30
	headerCoverage = 0.75
)

// table is a header plus data rows. An empty cell is an absent value.
type table struct {
	columns []string
	rows    [][]string
	src     []int // raw row index of each data row
}

// DetectHeader returns the index of the first of the leading rows in which
// some pattern has at least 75% of its keywords present (case-insensitive
// substring test over the row's joined text). ok is false when no row
// qualifies; the index is then 0.
func DetectHeader(rows [][]string, patterns [][]string) (index int, ok bool) {
	limit := min(headerScanRows, len(rows))
	for i := 0; i < limit; i++ {
		text := strings.ToLower(strings.Join(rows[i], " "))
		for _, pattern := range patterns {
			if len(pattern) == 0 {
				continue
			}
			hits := 0
			for _, kw := range pattern {
				if strings.Contains(text, strings.ToLower(kw)) {
					hits++
				}
			}
			if float64(hits) >= float64(len(pattern))*headerCoverage {
				return i, true
			}
		}
	}
	return 0, false
}

// buildTable turns raw rows into a table using rows[header] as column names.
func buildTable(rows [][]string, header int, profile model.ParsingProfile) (*table, []Issue, error) {
	var issues []Issue
	t := &table{}

	if delim, ok := profile.Delimiter(); ok {
		if len(rows[header]) == 0 || rows[header][0] == "" {
			return nil, nil, fmt.Errorf("%w: header row %d is empty in %q-delimited export", ErrTable, header+1, delim)
		}
		t.columns = strings.Split(rows[header][0], delim)
		for i := header + 1; i < len(rows); i++ {
			if len(rows[i]) == 0 {
				continue
			}
			fields := strings.Split(rows[i][0], delim)
			if len(fields) != len(t.columns) {
				issues = append(issues, Issue{
					Kind:   IssueMalformedRow,
					Row:    i + 1,
					Detail: fmt.Sprintf("%d fields, header has %d", len(fields), len(t.columns)),
				})
				continue
			}
			t.rows = append(t.rows, fields)
			t.src = append(t.src, i)
		}
	} else {
		t.columns = append([]string(nil), rows[header]...)
		for i := header + 1; i < len(rows); i++ {
			row, err := fitRow(rows[i], len(t.columns))
			if err != nil {
				return nil, nil, fmt.Errorf("%w: row %d: %v", ErrTable, i+1, err)
			}
			t.rows = append(t.rows, row)
			t.src = append(t.src, i)
		}
	}

	t.dropEmptyRows()
	t.dropEmptyColumns(keepColumns(profile))
	return t, issues, nil
}

// fitRow pads a short row with absent cells and trims empty overflow.
func fitRow(row []string, width int) ([]string, error) {
	out := make([]string, width)
	copy(out, row)
	for j := width; j < len(row); j++ {
		if row[j] != "" {
			return nil, fmt.Errorf("%d fields, header has %d", len(row), width)
		}
	}
	return out, nil
}

func (t *table) dropEmptyRows() {
	rows := t.rows[:0]
	src := t.src[:0]
	for i, row := range t.rows {
		if !allEmpty(row) {
			rows = append(rows, row)
			src = append(src, t.src[i])
		}
	}
	t.rows, t.src = rows, src
}

// dropEmptyColumns removes columns absent in every row, except those whose
// trimmed lower-case name is in keep.
func (t *table) dropEmptyColumns(keep map[string]bool) {
	var idx []int
	for j, name := range t.columns {
		if keep[normalize(name)] {
			idx = append(idx, j)
			continue
		}
		for _, row := range t.rows {
			if row[j] != "" {
				idx = append(idx, j)
				break
			}
		}
	}
	if len(idx) == len(t.columns) {
		return
	}

	cols := make([]string, len(idx))
	for k, j := range idx {
		cols[k] = t.columns[j]
	}
	for r, row := range t.rows {
		out := make([]string, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		t.rows[r] = out
	}
	t.columns = cols
}

// rename applies the profile's column map, reporting unmatched sources.
func (t *table) rename(columnMap map[string]string) []Issue {
	var issues []Issue
	sources := make([]string, 0, len(columnMap))
	for src := range columnMap {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		j := t.indexFold(src)
		if j < 0 {
			issues = append(issues, Issue{Kind: IssueColumnNotFound, Row: -1, Column: src})
			continue
		}
		t.columns[j] = columnMap[src]
	}
	return issues
}

// index returns the position of the column named exactly name, or -1.
func (t *table) index(name string) int {
	for j, c := range t.columns {
		if c == name {
			return j
		}
	}
	return -1
}

// indexFold matches name against trimmed column names, ignoring case.
func (t *table) indexFold(name string) int {
	want := normalize(name)
	for j, c := range t.columns {
		if normalize(c) == want {
			return j
		}
	}
	return -1
}

// cell returns row r of column j, or "" when the column is missing.
func (t *table) cell(r, j int) string {
	if j < 0 {
		return ""
	}
	return t.rows[r][j]
}

// filterRows keeps the rows for which keep returns true.
func (t *table) filterRows(keep []bool) {
	rows := t.rows[:0]
	src := t.src[:0]
	for i, row := range t.rows {
		if keep[i] {
			rows = append(rows, row)
			src = append(src, t.src[i])
		}
	}
	t.rows, t.src = rows, src
}

func keepColumns(profile model.ParsingProfile) map[string]bool {
	keep := make(map[string]bool, len(profile.ColumnMap)+1)
	for src := range profile.ColumnMap {
		keep[normalize(src)] = true
	}
	if profile.AmountSignCol != "" {
		keep[normalize(profile.AmountSignCol)] = true
	}
	return keep
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func allEmpty(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
