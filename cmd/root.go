package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "banny-bridge",
	Short: "A CLI for bridging tokens between EVM chains using Across",
	Long: `banny-bridge is a command-line tool for moving tokens between EVM chains
through the Across protocol. It fetches a quote for the route, shows the full
fee breakdown, and submits the approval and deposit transactions for you.

Examples:
  banny-bridge bridge 0.5 ETH from base to arbitrum
  banny-bridge bridge 150 USDC from base to optimism --recipient 0x123...
  banny-bridge quote 1 WETH from mainnet to base
  banny-bridge chains
  banny-bridge status <tx-hash> --chain base`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
