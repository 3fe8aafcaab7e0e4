package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `year,product_name,day,month,promotion,total_sales,net_profit,discounted_sales,unit_sold,profit_margin (%),temperature,discount
2021,A,Monday,January,1,1000,20,90,10,20,18.4,0.1
2021,B,Tuesday,January,0,500,5,0,5,10,21.6,0
2022,A,Monday,February,0,800,16,0,8,20,22.4,0
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append(args, "--data", path, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestChartCommand(t *testing.T) {
	out, err := run(t, "chart", "sales-by-product", "--format", "csv", "--year", "2021")
	require.NoError(t, err)
	assert.Equal(t, "product,total_sales\nA,1000\nB,500\n", out)
}

func TestChartCommand_Table(t *testing.T) {
	out, err := run(t, "chart", "net-profit-by-product", "--local", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "product")
	assert.Contains(t, out, "36")
	assert.NotContains(t, out, "B")
}

func TestChartCommand_UnknownChart(t *testing.T) {
	_, err := run(t, "chart", "nope")
	assert.Error(t, err)
}

func TestKPIsCommand(t *testing.T) {
	out, err := run(t, "kpis", "--product", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Sales:")
	assert.Contains(t, out, "1,800.00")
}

func TestOptionsCommand(t *testing.T) {
	out, err := run(t, "options", "day", "--year", "2022")
	require.NoError(t, err)
	assert.JSONEq(t, `["All", "Monday"]`, out)

	out, err = run(t, "options", "--chart", "sales-vs-temperature")
	require.NoError(t, err)
	assert.JSONEq(t, `["All", "2021", "2022"]`, out)
}

func TestServeCommand_LoadFailureStopsServer(t *testing.T) {
	// 1. Listen on a free port, with a dataset that does not exist
	t.Setenv("SALESDASH_SERVER_ADDR", "127.0.0.1:0")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "--data", filepath.Join(t.TempDir(), "missing.csv"), "--log-level", "error"})

	// 2. The failed background load shuts the server down and is returned
	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load dataset")
	case <-time.After(10 * time.Second):
		t.Fatal("serve kept running after the dataset failed to load")
	}
}
