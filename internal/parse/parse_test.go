package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1,005.50", "1005.50"},
		{"(50.25)", "-50.25"},
		{"150.00 Dr", "-150.00"},
		{"150.00 DR", "-150.00"},
		{"150.00 Cr", "150.00"},
		{"150.00 cr", "150.00"},
		{"₹ 2,000", "2000.00"},
		{"$12.34", "12.34"},
		{"  -7.5  ", "-7.50"},
		{"+42", "42.00"},
		{"12.5%", "12.50"},
		{"1.5E+3", "1500.00"},
		{"2e+2", "200.00"},
		{"(1,234.00)", "-1234.00"},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		assert.True(t, ok, "ParseAmount(%q) ok", tt.raw)
		assert.Equal(t, tt.want, got.StringFixed(2), "ParseAmount(%q)", tt.raw)
	}
}

func TestParseAmount_Missing(t *testing.T) {
	for _, raw := range []string{"", "   ", "nan", "NaN", "None", "null", "N/A", "<NA>"} {
		got, ok := ParseAmount(raw)
		assert.True(t, ok, "missing %q should not be flagged", raw)
		assert.True(t, got.IsZero(), "missing %q should be zero", raw)
	}
}

func TestParseAmount_Unparsable(t *testing.T) {
	for _, raw := range []string{"abc", "12..3", "Dr", "1.2.3 Cr", "inf"} {
		got, ok := ParseAmount(raw)
		assert.False(t, ok, "%q should be flagged", raw)
		assert.True(t, got.IsZero(), "%q should be zero", raw)
	}
}

func TestParseAmount_NeverPanics(t *testing.T) {
	inputs := []string{"(", ")", "()", " Dr", "%", "E+", "1E+999999", "--", "-", "(-)"}
	for _, raw := range inputs {
		assert.NotPanics(t, func() { ParseAmount(raw) }, "ParseAmount(%q)", raw)
	}
}

func TestParseDate_ExplicitFormat(t *testing.T) {
	got, ok := ParseDate("23-01-2024", []string{"%d-%m-%Y"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_FormatOrderWins(t *testing.T) {
	got, ok := ParseDate("01-02-2024", []string{"%d-%m-%Y", "%m-%d-%Y"})
	assert.True(t, ok)
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 1, got.Day())

	got, ok = ParseDate("01-02-2024", []string{"%m-%d-%Y", "%d-%m-%Y"})
	assert.True(t, ok)
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 2, got.Day())
}

func TestParseDate_StripsQuotes(t *testing.T) {
	got, ok := ParseDate("'2024-03-05' ", []string{"%Y-%m-%d"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_WithTime(t *testing.T) {
	got, ok := ParseDate("05/03/2024 14:30:00", []string{"%d/%m/%Y %H:%M:%S"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), got)
}

func TestParseDate_Inference(t *testing.T) {
	got, ok := ParseDate("2024-01-23", nil)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate("23/01/2024", []string{"%Y-%m-%d"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_InferenceDayFirstSeparators(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"23-01-2024", time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC)},
		{"23.01.2024", time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC)},
		{"03-01-2024", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"23-01-2024 10:00", time.Date(2024, 1, 23, 10, 0, 0, 0, time.UTC)},
		{"03-01-2024 10:15", time.Date(2024, 1, 3, 10, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.raw, nil)
		assert.True(t, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	// An explicit date-only format falls through to inference for cells
	// carrying a time.
	got, ok := ParseDate("03-01-2024 10:15", []string{"%d-%m-%Y"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 3, 10, 15, 0, 0, time.UTC), got)
}

func TestSlashed(t *testing.T) {
	assert.Equal(t, "23/01/2024", slashed("23-01-2024"))
	assert.Equal(t, "23/01/2024 10:00", slashed("23.01.2024 10:00"))
	assert.Equal(t, "2024-01-23", slashed("2024-01-23"))
	assert.Equal(t, "invalid", slashed("invalid"))
}

func TestParseDate_Invalid(t *testing.T) {
	_, ok := ParseDate("invalid", nil)
	assert.False(t, ok)

	_, ok = ParseDate("", []string{"%d-%m-%Y"})
	assert.False(t, ok)

	_, ok = ParseDate("''", nil)
	assert.False(t, ok)
}
