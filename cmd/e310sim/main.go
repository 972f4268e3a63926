package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "e310sim",
	Short: "Run the FE310 drivers against a simulated board",
	Long: `e310sim runs the alarm timer and UART drivers on a host model of the
FE310: time only moves when the simulator advances it, and UART input is
fed from the command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(boardsCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
