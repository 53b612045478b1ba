package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stocktrader",
	Short: "An automated equity dip-buying trading loop",
	Long: `Stocktrader monitors last-trade prices for a single symbol and drives an
automated trading loop: buy on configured price drops, sell positions
that reach the profit trigger, and force-sell positions that breach the
stop loss. Every order runs through a place/poll/cancel lifecycle and
every execution is journaled.

Runs are driven against an in-process paper brokerage session with a
scripted price feed; real connectivity is out of scope.`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
