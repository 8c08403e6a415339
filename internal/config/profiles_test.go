package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gajana-dev/gajana/internal/model"
)

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank-hdfc.json"), []byte(`{
		"header_patterns": [["Tran Date", "PARTICULARS", "DR", "CR"]],
		"column_map": {"Tran Date": "date", "PARTICULARS": "description", "DR": "debit", "CR": "credit"},
		"date_formats": ["%d-%m-%Y"]
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CC-HDFC.yaml"), []byte(`
header_patterns:
  - ["Date~Description~Amount"]
column_map:
  Date: date
  Description: description
  Amount: amount
  Dr/Cr: sign
date_formats: ["%d/%m/%Y"]
amount_sign_col: sign
debit_value: ""
special_handling: hdfc_cc_tilde
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	profiles, err := LoadProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	bank := profiles["bank-hdfc"]
	assert.Equal(t, "bank-hdfc", bank.Name)
	assert.Equal(t, "debit", bank.ColumnMap["DR"])
	assert.Equal(t, []string{"%d-%m-%Y"}, bank.DateFormats)

	cc := profiles["cc-hdfc"]
	assert.Equal(t, "sign", cc.AmountSignCol)
	assert.Equal(t, "", cc.DebitValue)
	assert.Equal(t, model.SpecialHDFCCCTilde, cc.SpecialHandling)
	_, tilde := cc.Delimiter()
	assert.True(t, tilde)
}

func TestLoadProfiles_MissingDir(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestLoadProfiles_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"column_map": [1, 2]}`), 0o644))
	_, err := LoadProfiles(dir)
	assert.Error(t, err)

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`{}`), 0o644))
	_, err = LoadProfiles(dir)
	assert.ErrorContains(t, err, "defined twice")
}
