package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sample = "../../testdata/captable.json"

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerateCmd(t *testing.T) {
	out := filepath.Join(t.TempDir(), "acme.xlsx")
	stdout, _, err := execute(t, "", "generate", sample, "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+out+"\n", stdout)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Summary", f.GetSheetList()[0])
}

func TestGenerateCmd_Verbose(t *testing.T) {
	out := filepath.Join(t.TempDir(), "acme.xlsx")
	_, stderr, err := execute(t, "", "generate", sample, "-o", out, "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "workbook generated")
	assert.Contains(t, stderr, "table=Ledger")
}

func TestGenerateCmd_Config(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "xlcap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sheets:\n  summary: Overview\n"), 0o644))
	out := filepath.Join(dir, "acme.xlsx")

	_, _, err := execute(t, "", "generate", sample, "-o", out, "--config", cfgPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Overview", f.GetSheetList()[0])

	require.NoError(t, os.WriteFile(cfgPath, []byte("sheetz: {}\n"), 0o644))
	_, _, err = execute(t, "", "generate", sample, "-o", out, "--config", cfgPath)
	assert.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	stdout, _, err := execute(t, "", "validate", sample)
	require.NoError(t, err)
	assert.Equal(t, sample+": ok\n", stdout)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{
		"company": {"name": ""},
		"calculations": [{"id": "c", "value": {"is_calculated": true, "formula_string": "=a"}}]
	}`), 0o644))
	stdout, _, err = execute(t, "", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, stdout, "[ERROR] /company/name: missing company name")
	assert.Contains(t, stdout, "[ERROR] /calculations/0/value/output_type: missing output_type")
	assert.Contains(t, err.Error(), "3 error(s)")
}

func TestDescribeCmd(t *testing.T) {
	stdout, _, err := execute(t, "", "describe", sample)
	require.NoError(t, err)
	assert.Contains(t, stdout, "  Total_FDS = Summary!$B$15\n")
	assert.Contains(t, stdout, "  Ledger Ledger!A3:I6 rows=3\n")
	assert.Contains(t, stdout, "  iss-1.shares -> Ledger[@[shares]] (Ledger!$F$4)\n")
}

func TestResolveCmd(t *testing.T) {
	feo := `{"is_calculated": true, "formula_string": "=exit/total", "output_type": "price",
		"dependency_refs": [
			{"placeholder": "exit", "path": "Exit_Value", "reference_type": "named_range"},
			{"placeholder": "total", "path": "Total_FDS", "reference_type": "named_range"}
		]}`
	stdout, _, err := execute(t, feo, "resolve", sample, "-")
	require.NoError(t, err)
	assert.Equal(t, "=IFERROR(Exit_Value/Total_FDS,0)\n", stdout)

	_, _, err = execute(t, `{"is_calculated": false}`, "resolve", sample, "-")
	assert.ErrorContains(t, err, "not a valid FEO")
}

func TestRootCmd_Args(t *testing.T) {
	_, _, err := execute(t, "", "generate")
	assert.Error(t, err)
	_, _, err = execute(t, "", "validate", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read cap table")
}
