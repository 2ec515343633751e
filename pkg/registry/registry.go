package registry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token is a chain-scoped token entry. Identical symbols on two chains are
// distinct entities; no cross-chain identity is implied.
type Token struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
	Native   bool
}

// Chain is one supported network and its ordered token list.
type Chain struct {
	ID           int64
	Name         string
	NativeSymbol string
	ExplorerURL  string
	Testnet      bool
	Tokens       []Token
}

// Registry is the immutable catalog of supported chains, their tokens, and
// the per-chain bridge contract and wrapped-native addresses. It is built
// once at startup and validated on construction.
type Registry struct {
	chains        []Chain
	byID          map[int64]int
	spokePools    map[int64]common.Address
	wrappedNative map[int64]common.Address
}

var zeroAddress = common.Address{}

func addr(s string) common.Address { return common.HexToAddress(s) }

var mainnetChains = []Chain{
	{
		ID: 1, Name: "Ethereum", NativeSymbol: "ETH",
		ExplorerURL: "https://etherscan.io",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
			{Symbol: "USDT", Name: "Tether USD", Address: addr("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
			{Symbol: "WBTC", Name: "Wrapped BTC", Address: addr("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8},
		},
	},
	{
		ID: 10, Name: "Optimism", NativeSymbol: "ETH",
		ExplorerURL: "https://optimistic.etherscan.io",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0x0b2C639c533813f4Aa9D7837CAf992c63414742f"), Decimals: 6},
		},
	},
	{
		ID: 8453, Name: "Base", NativeSymbol: "ETH",
		ExplorerURL: "https://basescan.org",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6},
		},
	},
	{
		ID: 42161, Name: "Arbitrum", NativeSymbol: "ETH",
		ExplorerURL: "https://arbiscan.io",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"), Decimals: 6},
		},
	},
}

var testnetChains = []Chain{
	{
		ID: 11155111, Name: "Sepolia", NativeSymbol: "ETH", Testnet: true,
		ExplorerURL: "https://sepolia.etherscan.io",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"), Decimals: 6},
		},
	},
	{
		ID: 84532, Name: "Base Sepolia", NativeSymbol: "ETH", Testnet: true,
		ExplorerURL: "https://sepolia.basescan.org",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0x036CbD53842c5426634e7929541eC2318f3dCF7e"), Decimals: 6},
		},
	},
	{
		ID: 421614, Name: "Arbitrum Sepolia", NativeSymbol: "ETH", Testnet: true,
		ExplorerURL: "https://sepolia.arbiscan.io",
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: zeroAddress, Decimals: 18, Native: true},
			{Symbol: "USDC", Name: "USD Coin", Address: addr("0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d"), Decimals: 6},
		},
	},
}

// Across V3 spoke pool deployments.
var spokePoolAddresses = map[int64]common.Address{
	1:        addr("0x5c7BCd6E7De5423a257D81B442095A15df84f3bb"),
	10:       addr("0x6f26Bf09B1C792e3228e5467807a900A503c0281"),
	8453:     addr("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"),
	42161:    addr("0xe35e9842fceaCA96570B734083f4a58e8F7C5f2A"),
	11155111: addr("0x5ef6C01E11889d86803e0B23e3cB3F9E9d97B662"),
	84532:    addr("0x82B564983aE7274c86695917BBf8C99ECb6F0F8F"),
	421614:   addr("0x7E63A5f1a8F0B4d0934B2f2327DAED3F6bb2ee75"),
}

// Canonical WETH per chain, substituted for the native sentinel wherever the
// protocol needs an ERC-20 address.
var wrappedNativeAddresses = map[int64]common.Address{
	1:        addr("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	10:       addr("0x4200000000000000000000000000000000000006"),
	8453:     addr("0x4200000000000000000000000000000000000006"),
	42161:    addr("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	11155111: addr("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"),
	84532:    addr("0x4200000000000000000000000000000000000006"),
	421614:   addr("0x980B62Da83eFf3D4576C647993b0c1D7faf17c73"),
}

// New builds the registry, optionally including test networks, and validates
// the catalog: unique chain ids, unique token addresses per chain, exactly
// one native token per chain (using the zero-address sentinel), and spoke
// pool plus wrapped-native entries for every chain.
func New(includeTestnets bool) (*Registry, error) {
	chains := make([]Chain, 0, len(mainnetChains)+len(testnetChains))
	chains = append(chains, mainnetChains...)
	if includeTestnets {
		chains = append(chains, testnetChains...)
	}

	r := &Registry{
		chains:        chains,
		byID:          make(map[int64]int, len(chains)),
		spokePools:    spokePoolAddresses,
		wrappedNative: wrappedNativeAddresses,
	}

	for i, c := range chains {
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate chain id %d", c.ID)
		}
		r.byID[c.ID] = i

		if len(c.Tokens) == 0 {
			return nil, fmt.Errorf("chain %s has no tokens", c.Name)
		}

		seen := make(map[common.Address]string, len(c.Tokens))
		natives := 0
		for _, t := range c.Tokens {
			if prev, dup := seen[t.Address]; dup {
				return nil, fmt.Errorf("chain %s: tokens %s and %s share address %s", c.Name, prev, t.Symbol, t.Address.Hex())
			}
			seen[t.Address] = t.Symbol

			if t.Native {
				natives++
				if t.Address != zeroAddress {
					return nil, fmt.Errorf("chain %s: native token %s must use the zero address", c.Name, t.Symbol)
				}
			} else if t.Address == zeroAddress {
				return nil, fmt.Errorf("chain %s: token %s uses the native sentinel address", c.Name, t.Symbol)
			}
			if t.Decimals == 0 {
				return nil, fmt.Errorf("chain %s: token %s has zero decimals", c.Name, t.Symbol)
			}
		}
		if natives != 1 {
			return nil, fmt.Errorf("chain %s: expected exactly one native token, got %d", c.Name, natives)
		}

		if _, ok := r.spokePools[c.ID]; !ok {
			return nil, fmt.Errorf("chain %s: no spoke pool address", c.Name)
		}
		if _, ok := r.wrappedNative[c.ID]; !ok {
			return nil, fmt.Errorf("chain %s: no wrapped-native address", c.Name)
		}
	}

	return r, nil
}

// Chains returns the full ordered chain list.
func (r *Registry) Chains() []Chain {
	return r.chains
}

// Chain looks up a chain by id.
func (r *Registry) Chain(id int64) (Chain, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Chain{}, false
	}
	return r.chains[i], true
}

// ChainByName looks up a chain by its display name, case-insensitively.
func (r *Registry) ChainByName(name string) (Chain, bool) {
	for _, c := range r.chains {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Chain{}, false
}

// Token looks up a token by symbol on a chain.
func (r *Registry) Token(chainID int64, symbol string) (Token, bool) {
	c, ok := r.Chain(chainID)
	if !ok {
		return Token{}, false
	}
	for _, t := range c.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return Token{}, false
}

// SpokePool returns the bridge contract address for a chain.
func (r *Registry) SpokePool(chainID int64) (common.Address, bool) {
	a, ok := r.spokePools[chainID]
	return a, ok
}

// WrappedNative returns the chain's canonical wrapped-native token address.
func (r *Registry) WrappedNative(chainID int64) (common.Address, bool) {
	a, ok := r.wrappedNative[chainID]
	return a, ok
}

// ExplorerTxURL builds a block-explorer link for a transaction hash.
func (r *Registry) ExplorerTxURL(chainID int64, txHash string) string {
	c, ok := r.Chain(chainID)
	if !ok {
		return ""
	}
	return c.ExplorerURL + "/tx/" + txHash
}

// nativeEquivalence is the native/wrapped-native equivalence class used by
// the destination availability rule.
var nativeEquivalence = map[string]bool{
	"ETH":  true,
	"WETH": true,
}

// RouteAvailable reports whether a destination token can be bridged to from
// the chosen source token. Same symbol on both sides is always available, as
// is any pair inside the native/wrapped equivalence class. Everything else
// is treated as unavailable; this is a conservative stand-in for a real
// route-availability lookup and only restricts the destination side.
func RouteAvailable(from, to Token) bool {
	if strings.EqualFold(from.Symbol, to.Symbol) {
		return true
	}
	return nativeEquivalence[strings.ToUpper(from.Symbol)] && nativeEquivalence[strings.ToUpper(to.Symbol)]
}
