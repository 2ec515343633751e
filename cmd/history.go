package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"banny-bridge/pkg/history"
	"banny-bridge/pkg/parser"
)

var historyChain string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List deposits submitted from this machine",
	Long: `List the deposits this tool has submitted, most recent first. History is
kept in a local JSON file and never leaves your machine.

Examples:
  banny-bridge history
  banny-bridge history --chain base
  banny-bridge history --json`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyChain, "chain", "", "Filter by source chain")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStorage("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var records []history.Record
	if historyChain != "" {
		records = store.ListByChain(parser.NormalizeChainName(historyChain))
	} else {
		records = store.List()
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo deposits recorded yet.")
		fmt.Printf("History file: %s\n\n", store.GetFilePath())
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  DEPOSIT HISTORY")
	fmt.Println(strings.Repeat("=", 60))

	for _, r := range records {
		fmt.Printf("\n  %s\n", color.CyanString(r.TxHash))
		fmt.Printf("    %s %s  %s -> %s\n", r.InputAmount, color.YellowString(r.TokenSymbol), r.FromChain, r.ToChain)
		fmt.Printf("    Received ~%s, recipient %s\n", r.OutputAmount, r.Recipient)
		fmt.Printf("    %s\n", r.SubmittedAt.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
