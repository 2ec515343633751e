package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"banny-bridge/pkg/bridge"
	"banny-bridge/pkg/parser"
	"banny-bridge/pkg/registry"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <token> from <chain> to <chain>",
	Short: "Fetch a bridge quote without submitting anything",
	Long: `Fetch an Across quote for a route and show the fee breakdown. No wallet or
private key is needed; nothing is signed or submitted.

Examples:
  banny-bridge quote 0.5 ETH from base to arbitrum
  banny-bridge quote 150 USDC from base to optimism --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	req, err := parser.ParseBridgeCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := parser.ValidateBridgeRequest(req); err != nil {
		printError(err)
		os.Exit(1)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	from, to, err := a.resolveRoute(req)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	raw, err := bridge.ParseAmount(req.Amount, from.Token.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	inputToken, err := erc20Address(a.reg, from)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	outputToken, err := erc20Address(a.reg, to)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := a.across.GetSuggestedFees(context.Background(),
		from.Chain.ID, to.Chain.ID, inputToken, outputToken, raw)

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"from_chain":      from.Chain.Name,
			"to_chain":        to.Chain.Name,
			"input_amount":    req.Amount,
			"input_token":     from.Token.Symbol,
			"output_amount":   bridge.FormatUnits(quote.OutputAmount, to.Token.Decimals),
			"output_token":    to.Token.Symbol,
			"total_relay_fee": bridge.FormatUnits(quote.TotalRelayFee.Total, from.Token.Decimals),
			"fill_time_sec":   quote.EstimatedFillTimeSec,
			"amount_too_low":  quote.IsAmountTooLow,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    BRIDGE QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:           %s %s on %s\n", req.Amount, color.YellowString(from.Token.Symbol), from.Chain.Name)
	fmt.Printf("  To:             ~%s %s on %s\n",
		bridge.FormatUnits(quote.OutputAmount, to.Token.Decimals), color.YellowString(to.Token.Symbol), to.Chain.Name)
	fmt.Printf("\n  Relay fee:      %s %s\n", bridge.FormatUnits(quote.TotalRelayFee.Total, from.Token.Decimals), from.Token.Symbol)
	fmt.Printf("    Gas:          %s %s\n", bridge.FormatUnits(quote.RelayerGasFee.Total, from.Token.Decimals), from.Token.Symbol)
	fmt.Printf("    Capital:      %s %s\n", bridge.FormatUnits(quote.RelayerCapitalFee.Total, from.Token.Decimals), from.Token.Symbol)
	if quote.EstimatedFillTimeSec > 0 {
		fmt.Printf("  Estimated fill: %d seconds\n", quote.EstimatedFillTimeSec)
	}
	if price := a.prices.Price(context.Background(), from.Token.Symbol); price != 1.0 {
		fmt.Printf("  %s price:      $%.2f\n", from.Token.Symbol, price)
	}
	if quote.IsAmountTooLow {
		color.Red("\n  Amount is below the route minimum of %s %s",
			bridge.FormatUnits(quote.Limits.MinDeposit, from.Token.Decimals), from.Token.Symbol)
		fmt.Println()
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

// erc20Address resolves a selection to the address handed to the protocol,
// substituting the chain's wrapped native for the native sentinel.
func erc20Address(reg *registry.Registry, sel bridge.Selection) (addr common.Address, err error) {
	if !sel.Token.Native {
		return sel.Token.Address, nil
	}
	wrapped, ok := reg.WrappedNative(sel.Chain.ID)
	if !ok {
		return addr, fmt.Errorf("no wrapped native token known for chain %d", sel.Chain.ID)
	}
	return wrapped, nil
}
