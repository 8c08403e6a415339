package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a parsed A1 range. Columns and rows are 1-based; zero means
// unbounded.
type Range struct {
	FirstCol, LastCol int
	FirstRow, LastRow int
}

// ParseRange parses "A:Z", "B2:H" or "A1:C10". An empty spec is the whole
// sheet.
func ParseRange(spec string) (Range, error) {
	var r Range
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return r, nil
	}
	if i := strings.LastIndex(spec, "!"); i >= 0 {
		spec = spec[i+1:]
	}

	from, to, ok := strings.Cut(spec, ":")
	if !ok {
		to = from
	}
	var err error
	if r.FirstCol, r.FirstRow, err = parseCell(from); err != nil {
		return r, fmt.Errorf("range %q: %w", spec, err)
	}
	if r.LastCol, r.LastRow, err = parseCell(to); err != nil {
		return r, fmt.Errorf("range %q: %w", spec, err)
	}
	if r.LastCol != 0 && r.LastCol < r.FirstCol || r.LastRow != 0 && r.LastRow < r.FirstRow {
		return r, fmt.Errorf("range %q is inverted", spec)
	}
	return r, nil
}

func parseCell(s string) (col, row int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i < len(s) {
		row, err = strconv.Atoi(s[i:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("bad cell reference %q", s)
		}
	}
	if i == 0 && row == 0 {
		return 0, 0, fmt.Errorf("bad cell reference %q", s)
	}
	return col, row, nil
}

// Clip returns the part of rows inside the range, dropping trailing empty
// cells of each row the way spreadsheet APIs do.
func (r Range) Clip(rows [][]string) [][]string {
	first, last := max(r.FirstRow, 1)-1, len(rows)
	if r.LastRow > 0 {
		last = min(last, r.LastRow)
	}
	if first >= last {
		return nil
	}

	out := make([][]string, 0, last-first)
	for _, row := range rows[first:last] {
		lo, hi := max(r.FirstCol, 1)-1, len(row)
		if r.LastCol > 0 {
			hi = min(hi, r.LastCol)
		}
		var cells []string
		if lo < hi {
			cells = row[lo:hi]
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}
	return out
}
