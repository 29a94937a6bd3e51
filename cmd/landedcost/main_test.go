package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jacketOrder = `
params:
  exchange_rate: 4.4
  service_fee_percent: 15
  tax_percent: 5
items:
  - name: jacket
    quantity: 1
    unit_price: 200
    domestic_shipping: 12
    unit_weight: 1.2
  - name: blank
    quantity: 0
`

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Table(t *testing.T) {
	code, out, stderr := runCLI(t, jacketOrder)
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, out, "jacket")
	assert.Contains(t, out, "Grand total:       1,286")
	assert.Contains(t, out, "Total weight (kg): 1.20")
	assert.Contains(t, out, "Skipped 1 empty row(s)")
}

func TestRun_FlagsOverrideFile(t *testing.T) {
	code, out, stderr := runCLI(t, jacketOrder, "-digits", "2")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "Grand total:       1,285.75")
	assert.Contains(t, out, "UNIT KG")
	assert.Regexp(t, `jacket\s+1\s+200\.00\s+200\.00\s+12\.00\s+1\.20\s+1\.20\s`, out, "unit weight sits between shipping and line weight")

	// Without service fee and tax: 242 * 4.4 = 1064.8
	code, out, stderr = runCLI(t, jacketOrder, "-fee", "0", "-tax", "0", "-digits", "1")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "Grand total:       1,064.8")
}

func TestRun_JSON(t *testing.T) {
	code, out, stderr := runCLI(t, jacketOrder, "-json", "-digits", "2")
	require.Equal(t, exitOK, code, stderr)

	var summary struct {
		Items []struct {
			Name      string  `json:"name"`
			LineTotal float64 `json:"line_total"`
		} `json:"items"`
		GrandTotal float64 `json:"grand_total"`
		Digits     int     `json:"rounding_digits"`
		Skipped    int     `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 1285.75, summary.GrandTotal)
	assert.Equal(t, 1285.75, summary.Items[0].LineTotal)
	assert.Equal(t, 2, summary.Digits)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRun_CoercesCells(t *testing.T) {
	order := `
items:
  - name: jacket
    quantity: "1"
    unit_price: "200"
    domestic_shipping: 12
    unit_weight: n/a
  - name: scarf
    quantity: 2
    unit_price: ~
    domestic_shipping: [oops]
    unit_weight: "0.5"
`
	code, out, stderr := runCLI(t, order, "-json", "-fee", "0", "-tax", "0", "-digits", "2")
	require.Equal(t, exitOK, code, stderr)

	var summary struct {
		Items []struct {
			Name       string  `json:"name"`
			UnitPrice  float64 `json:"unit_price"`
			UnitWeight float64 `json:"unit_weight"`
			LineTotal  float64 `json:"line_total"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Items, 2)

	// (200 + 12) * 4.4
	assert.Equal(t, 0.0, summary.Items[0].UnitWeight)
	assert.Equal(t, 932.8, summary.Items[0].LineTotal)
	// 2 * 0.5 kg at 30/kg = 30, * 4.4
	assert.Equal(t, 0.0, summary.Items[1].UnitPrice)
	assert.Equal(t, 132.0, summary.Items[1].LineTotal)
}

func TestRun_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jacketOrder), 0o600))

	code, out, stderr := runCLI(t, "", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "1,286")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "only empty rows",
			stdin:    "items:\n  - quantity: 0\n",
			wantCode: exitEmpty,
			wantErr:  "warning: nothing to calculate",
		},
		{
			name:     "empty input",
			stdin:    "",
			wantCode: exitEmpty,
			wantErr:  "warning",
		},
		{
			name:     "invalid yaml",
			stdin:    "items: [",
			wantCode: exitUsage,
			wantErr:  "reading worksheet",
		},
		{
			name:     "item is not a mapping",
			stdin:    "items:\n  - socks\n",
			wantCode: exitUsage,
			wantErr:  "mapping",
		},
		{
			name:     "rounding out of range",
			stdin:    jacketOrder,
			args:     []string{"-digits", "5"},
			wantCode: exitUsage,
			wantErr:  "rounding_digits",
		},
		{
			name:     "negative exchange rate",
			stdin:    jacketOrder,
			args:     []string{"-rate", "-1"},
			wantCode: exitUsage,
			wantErr:  "exchange_rate",
		},
		{
			name:     "missing file",
			args:     []string{filepath.Join(os.TempDir(), "does-not-exist.yaml")},
			wantCode: exitUsage,
			wantErr:  "does-not-exist.yaml",
		},
		{
			name:     "unknown flag",
			args:     []string{"-bogus"},
			wantCode: exitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runCLI(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Empty(t, out)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestRun_Tariff(t *testing.T) {
	code, out, _ := runCLI(t, "", "-tariff")
	require.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "<= 1")
	assert.Contains(t, lines[1], "30")
	assert.Contains(t, lines[5], "> 10")
	assert.Contains(t, lines[5], "15")
}
