package main

import (
	"os"

	"github.com/rustyeddy/stocktrader/cmd/stocktrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
