package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"banny-bridge/pkg/bridge"
	"banny-bridge/pkg/history"
	"banny-bridge/pkg/parser"
	"banny-bridge/pkg/types"
)

var (
	fromChain     string
	toChain       string
	toToken       string
	recipientAddr string
	noConfirm     bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge <amount> <token> from <chain> to <chain>",
	Short: "Bridge tokens between EVM chains",
	Long: `Bridge tokens from one EVM chain to another through the Across protocol.

The command fetches a quote, shows the fee breakdown, and after confirmation
submits the approval (if the spoke pool's allowance is short) and the deposit.
A private key must be configured via BANNY_BRIDGE_PRIVATE_KEY or the config
file, along with RPC endpoints for the chains involved.

Examples:
  # Bridge native ETH
  banny-bridge bridge 0.5 ETH from base to arbitrum

  # Bridge an ERC-20, sending to a different address on the destination
  banny-bridge bridge 150 USDC from base to optimism --recipient 0xAbc...

  # Receive a different (equivalent) token on the destination
  banny-bridge bridge 1 ETH from base to arbitrum --to-token WETH

  # Skip the confirmation prompt
  banny-bridge bridge 150 USDC from base to optimism --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)

	bridgeCmd.Flags().StringVar(&fromChain, "from-chain", "", "Source chain (overrides the parsed command)")
	bridgeCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination chain (overrides the parsed command)")
	bridgeCmd.Flags().StringVar(&toToken, "to-token", "", "Token to receive on the destination (defaults to the sent token)")
	bridgeCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address on the destination (defaults to your own)")
	bridgeCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runBridge(cmd *cobra.Command, args []string) {
	req, err := parser.ParseBridgeCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if fromChain != "" {
		req.FromChain = parser.NormalizeChainName(fromChain)
	}
	if toChain != "" {
		req.ToChain = parser.NormalizeChainName(toChain)
	}
	if toToken != "" {
		req.ToTokenSymbol = strings.ToUpper(toToken)
	}
	req.RecipientAddr = recipientAddr

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

	session, w, err := a.newWalletSession(from, to)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer session.Close()
	defer w.Close()

	ctx := context.Background()

	addr, err := session.Connect(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := session.SwitchToFromChain(ctx); err != nil {
		printError(fmt.Errorf("no RPC endpoint configured for %s: %w", from.Chain.Name, err))
		os.Exit(1)
	}
	if req.RecipientAddr != "" {
		if err := session.SetRecipient(req.RecipientAddr); err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	// Fetch the quote
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	session.SetAmount(req.Amount)
	err = waitForSessionQuote(session, 30*time.Second)

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	quote := session.Quote()
	if quote.IsAmountTooLow {
		min := bridge.FormatUnits(quote.Limits.MinDeposit, from.Token.Decimals)
		printError(fmt.Errorf("amount is below the route minimum of %s %s", min, from.Token.Symbol))
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"depositor":         addr.Hex(),
			"from_chain":        from.Chain.Name,
			"to_chain":          to.Chain.Name,
			"input_amount":      req.Amount,
			"input_token":       from.Token.Symbol,
			"output_amount":     bridge.FormatUnits(quote.OutputAmount, to.Token.Decimals),
			"output_token":      to.Token.Symbol,
			"total_relay_fee":   bridge.FormatUnits(quote.TotalRelayFee.Total, from.Token.Decimals),
			"fill_time_sec":     quote.EstimatedFillTimeSec,
			"status":            "quote_received",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayQuote(session, req.Amount)
	}

	if !noConfirm && !jsonOutput {
		if !confirmBridge() {
			fmt.Println("\nBridge cancelled.")
			os.Exit(0)
		}
	}

	// Approve if the spoke pool's allowance does not cover the amount
	if session.Decision() == bridge.NeedsApproval {
		if !jsonOutput {
			s.Suffix = fmt.Sprintf(" Approving %s...", from.Token.Symbol)
			s.Start()
		}
		hash, err := session.Approve(ctx)
		if !jsonOutput {
			s.Stop()
		}
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if !jsonOutput {
			color.Green("\n✓ Approval confirmed")
			fmt.Printf("  Tx: %s\n", color.CyanString(hash.Hex()))
		}
	}

	if state := session.Decision(); state != bridge.ReadyToBridge {
		printError(fmt.Errorf("cannot bridge: %s", state))
		os.Exit(1)
	}

	// Submit the deposit
	if !jsonOutput {
		s.Suffix = " Submitting deposit..."
		s.Start()
	}
	hash, err := session.Bridge(ctx)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	recordDeposit(a, hash.Hex(), from, to, req.Amount, quote, req.RecipientAddr, addr.Hex())

	if jsonOutput {
		output := map[string]interface{}{
			"tx_hash":      hash.Hex(),
			"explorer_url": a.reg.ExplorerTxURL(from.Chain.ID, hash.Hex()),
			"status":       "deposit_confirmed",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(color.GreenString("✓ Deposit confirmed!"))
	fmt.Printf("  Tx:       %s\n", color.CyanString(hash.Hex()))
	if url := a.reg.ExplorerTxURL(from.Chain.ID, hash.Hex()); url != "" {
		fmt.Printf("  Explorer: %s\n", url)
	}
	if quote.EstimatedFillTimeSec > 0 {
		fmt.Printf("  Your funds should arrive on %s in about %d seconds.\n\n",
			to.Chain.Name, quote.EstimatedFillTimeSec)
	}
}

// recordDeposit appends the confirmed deposit to the local history file.
// History is best-effort; a write failure never fails the bridge.
func recordDeposit(a *app, txHash string, from, to bridge.Selection, amount string, quote *types.Quote, recipient, depositor string) {
	store, err := history.NewStorage("")
	if err != nil {
		a.log.Warn("History unavailable", zap.Error(err))
		return
	}
	if recipient == "" {
		recipient = depositor
	}
	err = store.Append(history.Record{
		TxHash:       txHash,
		FromChain:    from.Chain.Name,
		ToChain:      to.Chain.Name,
		TokenSymbol:  from.Token.Symbol,
		InputAmount:  amount,
		OutputAmount: bridge.FormatUnits(quote.OutputAmount, to.Token.Decimals),
		Recipient:    recipient,
		SubmittedAt:  time.Now().UTC(),
	})
	if err != nil {
		a.log.Warn("Failed to record deposit", zap.Error(err))
	}
}

// waitForSessionQuote blocks until the debounced fetch resolves one way or
// the other.
func waitForSessionQuote(session *bridge.Session, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := session.QuoteError(); err != nil {
			return err
		}
		if session.Quote() != nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for a quote")
}

func displayQuote(session *bridge.Session, amount string) {
	from := session.From()
	to := session.To()
	quote := session.Quote()

	fromUSD, _ := session.USDPrices(context.Background())

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    BRIDGE QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:            %s %s on %s\n", amount, color.YellowString(from.Token.Symbol), from.Chain.Name)
	fmt.Printf("  To:              ~%s %s on %s\n",
		bridge.FormatUnits(quote.OutputAmount, to.Token.Decimals), color.YellowString(to.Token.Symbol), to.Chain.Name)

	fmt.Printf("\n  Relay fee:       %s %s\n", bridge.FormatUnits(quote.TotalRelayFee.Total, from.Token.Decimals), from.Token.Symbol)
	fmt.Printf("    Gas:           %s %s\n", bridge.FormatUnits(quote.RelayerGasFee.Total, from.Token.Decimals), from.Token.Symbol)
	fmt.Printf("    Capital:       %s %s\n", bridge.FormatUnits(quote.RelayerCapitalFee.Total, from.Token.Decimals), from.Token.Symbol)
	if quote.LpFee != nil {
		fmt.Printf("    LP:            %s %s\n", bridge.FormatUnits(quote.LpFee.Total, from.Token.Decimals), from.Token.Symbol)
	}

	if fromUSD > 0 && fromUSD != 1.0 {
		fmt.Printf("\n  %s price:       $%.2f\n", from.Token.Symbol, fromUSD)
	}
	if quote.EstimatedFillTimeSec > 0 {
		fmt.Printf("  Estimated fill:  %d seconds\n", quote.EstimatedFillTimeSec)
	}

	balance := session.Balance()
	if balance.Sign() > 0 {
		fmt.Printf("  Your balance:    %s %s\n", bridge.FormatUnits(balance, from.Token.Decimals), from.Token.Symbol)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmBridge() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with bridge? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
