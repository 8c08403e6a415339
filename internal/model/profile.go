package model

// Special handling tags understood by the standardizer.
const (
	SpecialTildeDelimited = "tilde_delimited"
	SpecialHDFCCCTilde    = "hdfc_cc_tilde"
)

// ParsingProfile describes how to locate and interpret the columns of one
// institution's statement export.
type ParsingProfile struct {
	Name            string            `json:"-" yaml:"-"`
	HeaderPatterns  [][]string        `json:"header_patterns" yaml:"header_patterns"`
	ColumnMap       map[string]string `json:"column_map" yaml:"column_map"`
	DateFormats     []string          `json:"date_formats" yaml:"date_formats"`
	AmountSignCol   string            `json:"amount_sign_col,omitempty" yaml:"amount_sign_col,omitempty"`
	DebitValue      string            `json:"debit_value,omitempty" yaml:"debit_value,omitempty"`
	SpecialHandling string            `json:"special_handling,omitempty" yaml:"special_handling,omitempty"`
}

// Delimiter returns the in-cell field delimiter for single-column exports.
func (p ParsingProfile) Delimiter() (string, bool) {
	switch p.SpecialHandling {
	case SpecialTildeDelimited, SpecialHDFCCCTilde:
		return "~", true
	default:
		return "", false
	}
}
