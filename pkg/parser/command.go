package parser

import (
	"fmt"
	"regexp"
	"strings"

	"banny-bridge/pkg/types"
)

// ParseBridgeCommand parses a natural language bridge command
// Examples:
//   - "bridge 0.5 ETH from base to arbitrum"
//   - "150 USDC from base to optimism"
//   - "1.25 WETH from mainnet to base as USDC"
func ParseBridgeCommand(command string) (*types.BridgeRequest, error) {
	command = strings.TrimSpace(command)

	// Remove the word "bridge" if present at the beginning
	if len(command) >= 7 && strings.EqualFold(command[:7], "bridge ") {
		command = command[7:]
	}

	// Pattern: <amount> <token> from <chain> to <chain> [as <token>]
	pattern := regexp.MustCompile(`(?i)^(\d+\.?\d*)\s+([A-Za-z0-9]+)\s+from\s+([A-Za-z0-9 ]+?)\s+to\s+([A-Za-z0-9 ]+?)(?:\s+as\s+([A-Za-z0-9]+))?$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid bridge command format. Expected: 'bridge <amount> <token> from <chain> to <chain>' (e.g., 'bridge 0.5 ETH from base to arbitrum')")
	}

	req := &types.BridgeRequest{
		Amount:        matches[1],
		TokenSymbol:   strings.ToUpper(matches[2]),
		ToTokenSymbol: strings.ToUpper(matches[2]),
		FromChain:     NormalizeChainName(matches[3]),
		ToChain:       NormalizeChainName(matches[4]),
	}
	if matches[5] != "" {
		req.ToTokenSymbol = strings.ToUpper(matches[5])
	}
	return req, nil
}

// ValidateBridgeRequest validates that a bridge request has all required fields
func ValidateBridgeRequest(req *types.BridgeRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.TokenSymbol == "" {
		return fmt.Errorf("token symbol is required")
	}
	if req.FromChain == "" {
		return fmt.Errorf("source chain is required")
	}
	if req.ToChain == "" {
		return fmt.Errorf("destination chain is required")
	}
	if req.FromChain == req.ToChain {
		return fmt.Errorf("source and destination chains must differ")
	}
	return nil
}

// NormalizeChainName maps common chain aliases to the registry's names
func NormalizeChainName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	aliases := map[string]string{
		"mainnet":          "Ethereum",
		"ethereum":         "Ethereum",
		"eth":              "Ethereum",
		"l1":               "Ethereum",
		"optimism":         "Optimism",
		"op":               "Optimism",
		"base":             "Base",
		"arbitrum":         "Arbitrum",
		"arbitrum one":     "Arbitrum",
		"arb":              "Arbitrum",
		"sepolia":          "Sepolia",
		"base sepolia":     "Base Sepolia",
		"arbitrum sepolia": "Arbitrum Sepolia",
	}

	if normalized, exists := aliases[name]; exists {
		return normalized
	}

	// Unknown alias: capitalize it and let the registry lookup decide.
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
