package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"banny-bridge/pkg/parser"
	"banny-bridge/pkg/registry"
)

var (
	statusChain   string
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a deposit transaction",
	Long: `Check whether a deposit (or approval) transaction has been mined on its
origin chain.

Examples:
  banny-bridge status 0x1234...abcd --chain base
  banny-bridge status 0x1234...abcd --chain base --watch
  banny-bridge status 0x1234...abcd --chain base --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusChain, "chain", "", "Chain the transaction was sent on (defaults to the configured source chain)")
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch until the transaction is mined")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var chain registry.Chain
	var ok bool
	if statusChain != "" {
		chain, ok = a.reg.ChainByName(parser.NormalizeChainName(statusChain))
	} else {
		chain, ok = a.reg.Chain(a.cfg.DefaultFromChainID)
	}
	if !ok {
		printError(fmt.Errorf("unknown chain: %s", statusChain))
		os.Exit(1)
	}

	rpc, ok := a.cfg.RPCUrl(chain.ID)
	if !ok {
		printError(fmt.Errorf("no RPC endpoint configured for %s", chain.Name))
		os.Exit(1)
	}

	client, err := ethclient.Dial(rpc)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer client.Close()

	hash := common.HexToHash(txHash)
	ctx := context.Background()

	if watchStatus {
		for {
			receipt, err := fetchReceipt(ctx, client, hash, jsonOutput)
			if err == nil {
				printReceipt(a.reg, chain, hash, receipt, jsonOutput)
				return
			}
			if !errors.Is(err, ethereum.NotFound) {
				printError(err)
				os.Exit(1)
			}
			if !jsonOutput {
				fmt.Printf("Transaction not mined yet, checking again in %ds...\n", watchInterval)
			}
			time.Sleep(time.Duration(watchInterval) * time.Second)
		}
	}

	receipt, err := fetchReceipt(ctx, client, hash, jsonOutput)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			printError(fmt.Errorf("transaction not found on %s (still pending, or wrong chain?)", chain.Name))
		} else {
			printError(err)
		}
		os.Exit(1)
	}
	printReceipt(a.reg, chain, hash, receipt, jsonOutput)
}

func fetchReceipt(ctx context.Context, client *ethclient.Client, hash common.Hash, quiet bool) (*types.Receipt, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !quiet {
		s.Suffix = " Checking transaction..."
		s.Start()
		defer s.Stop()
	}
	return client.TransactionReceipt(ctx, hash)
}

func printReceipt(reg *registry.Registry, chain registry.Chain, hash common.Hash, receipt *types.Receipt, jsonOutput bool) {
	status := "reverted"
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = "confirmed"
	}

	if jsonOutput {
		output := map[string]interface{}{
			"tx_hash":      hash.Hex(),
			"chain":        chain.Name,
			"status":       status,
			"block_number": receipt.BlockNumber.Uint64(),
			"gas_used":     receipt.GasUsed,
			"explorer_url": reg.ExplorerTxURL(chain.ID, hash.Hex()),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		color.Green("\n✓ Transaction confirmed")
	} else {
		color.Red("\n✗ Transaction reverted")
	}
	fmt.Printf("  Chain:    %s\n", chain.Name)
	fmt.Printf("  Block:    %d\n", receipt.BlockNumber.Uint64())
	fmt.Printf("  Gas used: %d\n", receipt.GasUsed)
	if url := reg.ExplorerTxURL(chain.ID, hash.Hex()); url != "" {
		fmt.Printf("  Explorer: %s\n", url)
	}
	fmt.Println()
}
