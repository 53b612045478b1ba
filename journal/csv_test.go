package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	dir := t.TempDir()
	execPath := filepath.Join(dir, "executions.csv")
	statsPath := filepath.Join(dir, "stats.csv")

	j, err := NewCSV(execPath, statsPath)
	require.NoError(t, err)

	when := time.Date(2026, 8, 12, 15, 4, 5, 0, time.UTC)
	require.NoError(t, j.RecordExecution(ExecutionRecord{
		ID:         "01JEXAMPLE",
		Time:       when,
		Symbol:     "AAPL",
		Side:       "SELL",
		Shares:     30,
		LimitPrice: 98.8011,
		FillPrice:  98.9,
		OrderID:    7,
		Status:     "Filled",
		Profit:     -63,
		Reason:     "StopLoss",
	}))
	require.NoError(t, j.RecordStats(StatsSnapshot{
		Time:          when,
		TotalTrades:   1,
		TotalProfit:   -63,
		OpenPositions: 1,
	}))
	require.NoError(t, j.Close())

	execs := readCSV(t, execPath)
	require.Len(t, execs, 2)
	assert.Equal(t, []string{
		"id", "time", "symbol", "side", "shares", "limit_price",
		"fill_price", "order_id", "status", "profit", "reason",
	}, execs[0])
	assert.Equal(t, []string{
		"01JEXAMPLE", "2026-08-12T15:04:05Z", "AAPL", "SELL", "30",
		"98.801100", "98.900000", "7", "Filled", "-63.000000", "StopLoss",
	}, execs[1])

	stats := readCSV(t, statsPath)
	require.Len(t, stats, 2)
	assert.Equal(t, []string{"time", "total_trades", "total_profit", "open_positions"}, stats[0])
	assert.Equal(t, []string{"2026-08-12T15:04:05Z", "1", "-63.000000", "1"}, stats[1])
}

func TestCSVJournalFlushesEachRecord(t *testing.T) {
	dir := t.TempDir()
	execPath := filepath.Join(dir, "executions.csv")

	j, err := NewCSV(execPath, filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordExecution(ExecutionRecord{
		ID:     "01JFLUSH",
		Time:   time.Now(),
		Symbol: "AAPL",
		Side:   "BUY",
		Shares: 30,
		Status: "Filled",
		Reason: "DipBuy",
	}))

	// Visible on disk without Close.
	rows := readCSV(t, execPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "01JFLUSH", rows[1][0])
}
