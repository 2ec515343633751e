package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"banny-bridge/pkg/parser"
	"banny-bridge/pkg/registry"
)

var (
	chainsTestnets bool
	chainsFilter   string
)

var chainsCmd = &cobra.Command{
	Use:     "chains",
	Aliases: []string{"list-chains", "ls"},
	Short:   "List supported chains and their tokens",
	Long: `List the chains this tool can bridge between and the tokens available on
each.

Examples:
  banny-bridge chains
  banny-bridge chains --testnets
  banny-bridge chains --json`,
	Run: runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)

	chainsCmd.Flags().BoolVar(&chainsTestnets, "testnets", false, "Include test networks")
	chainsCmd.Flags().StringVar(&chainsFilter, "chain", "", "Show a single chain by name")
}

func runChains(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reg := a.reg
	if chainsTestnets && !a.cfg.IncludeTestnets {
		reg, err = registry.New(true)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	chains := reg.Chains()
	if chainsFilter != "" {
		c, ok := reg.ChainByName(parser.NormalizeChainName(chainsFilter))
		if !ok {
			printError(fmt.Errorf("unknown chain: %s", chainsFilter))
			os.Exit(1)
		}
		chains = []registry.Chain{c}
	}

	if jsonOutput {
		type tokenOut struct {
			Symbol   string `json:"symbol"`
			Name     string `json:"name"`
			Address  string `json:"address"`
			Decimals uint8  `json:"decimals"`
			Native   bool   `json:"native,omitempty"`
		}
		type chainOut struct {
			ID      int64      `json:"chain_id"`
			Name    string     `json:"name"`
			Testnet bool       `json:"testnet,omitempty"`
			Tokens  []tokenOut `json:"tokens"`
		}

		out := make([]chainOut, 0, len(chains))
		for _, c := range chains {
			co := chainOut{ID: c.ID, Name: c.Name, Testnet: c.Testnet}
			for _, t := range c.Tokens {
				co.Tokens = append(co.Tokens, tokenOut{
					Symbol: t.Symbol, Name: t.Name, Address: t.Address.Hex(),
					Decimals: t.Decimals, Native: t.Native,
				})
			}
			out = append(out, co)
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  SUPPORTED CHAINS")
	fmt.Println(strings.Repeat("=", 60))

	for _, c := range chains {
		label := c.Name
		if c.Testnet {
			label += " (testnet)"
		}
		fmt.Printf("\n  %s  %s\n", color.CyanString("%-20s", label), color.New(color.Faint).Sprintf("chain id %d", c.ID))
		for _, t := range c.Tokens {
			addr := t.Address.Hex()
			if t.Native {
				addr = "native"
			}
			fmt.Printf("    %-6s %-18s %s\n", color.YellowString(t.Symbol), t.Name, addr)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
