package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocktrader/broker/paper"
	"github.com/rustyeddy/stocktrader/config"
	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/order"
	"github.com/rustyeddy/stocktrader/trader"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a trading session from a config file",
	Long: `Run a paper trading session using settings from a configuration file.

The config file specifies the symbol, trigger thresholds, timeouts,
journal backend, and the price steps the paper feed replays.

Example:
  stocktrader run --config session.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	timeouts, err := cfg.Timeouts.Parse()
	if err != nil {
		return err
	}
	log := newLogger()

	fmt.Printf("Running session with config: %s\n", runConfigPath)
	fmt.Printf("  Symbol: %s (buy %.2f%%, sell %.2f%%, stop %.2f%%)\n",
		cfg.Trading.Symbol, cfg.Trading.BuyTrigger*100, cfg.Trading.SellTrigger*100, cfg.Trading.StopLossTrigger*100)
	fmt.Printf("  Positions: max %d of %d shares\n", cfg.Trading.MaxPositions, cfg.Trading.PositionSize)
	fmt.Println()

	var jnl journal.Journal
	if cfg.Journal.Type == "csv" {
		jnl, err = journal.NewCSV(cfg.Journal.ExecutionsFile, cfg.Journal.StatsFile)
	} else {
		jnl, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer jnl.Close()

	session := paper.NewSession(log)
	session.SetPrice(cfg.Feed.InitialPrice)

	coord := order.NewCoordinator(session, timeouts.PollInterval, timeouts.FillWait, log)
	tr := trader.New(trader.Config{
		Symbol:     cfg.Trading.Symbol,
		Triggers:   cfg.Trading.Triggers(),
		PriceWait:  timeouts.PriceWait,
		CyclePause: timeouts.CyclePause,
	}, session, coord, jnl, log)

	ref := cfg.Trading.ReferencePrice
	if ref <= 0 {
		ref = cfg.Feed.InitialPrice
	}
	if err := tr.SetReferencePrice(ref); err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		serveStatus(cfg.Metrics.Addr, tr, log)
	}

	done := make(chan error, 1)
	go func() {
		done <- tr.Start(context.Background())
	}()

	for _, step := range cfg.Feed.Steps {
		delay, err := step.ParseDuration()
		if err != nil {
			return fmt.Errorf("invalid feed step delay: %w", err)
		}
		time.Sleep(delay)
		fmt.Printf("Tick: $%.2f\n", step.Price)
		session.SetPrice(step.Price)
	}

	// Let the loop observe the final tick before stopping.
	time.Sleep(2 * timeouts.CyclePause)
	tr.Stop()
	if err := <-done; err != nil {
		return fmt.Errorf("monitoring failed: %w", err)
	}

	printSummary(tr.Snapshot())
	return nil
}

// serveStatus exposes Prometheus metrics and a read-only JSON snapshot
// of the trader.
func serveStatus(addr string, tr *trader.Trader, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tr.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics and status")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("status server failed")
		}
	}()
}

func printSummary(snap trader.Snapshot) {
	fmt.Printf("\nFinal Results:\n")
	fmt.Printf("  State: %s\n", snap.State)
	fmt.Printf("  Reference Price: $%.2f\n", snap.ReferencePrice)
	fmt.Printf("  Last Price: $%.2f\n", snap.LastPrice)
	fmt.Printf("  Completed Trades: %d\n", snap.Ledger.Stats.TotalTrades)
	fmt.Printf("  Realized Profit: $%.2f\n", snap.Ledger.Stats.TotalProfit)

	if len(snap.Ledger.Positions) == 0 {
		fmt.Println("  No open positions")
		return
	}
	fmt.Printf("  Open Positions (%d):\n", len(snap.Ledger.Positions))
	for _, p := range snap.Ledger.Positions {
		fmt.Printf("    %d shares @ $%.2f (now $%.2f, %+.2f%%, $%+.2f)\n",
			p.Shares, p.EntryPrice, p.CurrentPrice, p.ProfitPercent, p.Profit)
	}
	fmt.Printf("  Total Value: $%.2f\n", snap.Ledger.TotalValue)
	fmt.Printf("  Unrealized Profit: $%+.2f\n", snap.Ledger.TotalProfit)
}
