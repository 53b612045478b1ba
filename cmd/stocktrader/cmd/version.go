package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stocktrader version %s\n", version)
		fmt.Println("An automated equity dip-buying trading loop")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
