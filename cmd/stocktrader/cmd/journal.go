package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocktrader/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Report recorded executions from a SQLite journal",
	Long: `Print every recorded order execution and the latest running
statistics from a SQLite journal database.

Example:
  stocktrader journal --db trading.db`,
	RunE: runJournal,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal (required)")
	journalCmd.MarkFlagRequired("db")
}

func runJournal(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	ctx := context.Background()
	recs, err := j.ListExecutions(ctx)
	if err != nil {
		return fmt.Errorf("list executions: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("No executions recorded")
		return nil
	}

	fmt.Printf("%-20s %-6s %-5s %7s %10s %10s %-10s %10s  %s\n",
		"TIME", "SYMBOL", "SIDE", "SHARES", "LIMIT", "FILL", "STATUS", "PROFIT", "REASON")
	for _, r := range recs {
		fmt.Printf("%-20s %-6s %-5s %7d %10.2f %10.2f %-10s %10.2f  %s\n",
			r.Time.Format("2006-01-02 15:04:05"),
			r.Symbol, r.Side, r.Shares, r.LimitPrice, r.FillPrice, r.Status, r.Profit, r.Reason)
	}

	stats, ok, err := j.LatestStats(ctx)
	if err != nil {
		return fmt.Errorf("latest stats: %w", err)
	}
	if ok {
		fmt.Printf("\nTotals: %d trades, $%.2f profit, %d open positions\n",
			stats.TotalTrades, stats.TotalProfit, stats.OpenPositions)
	}
	return nil
}
