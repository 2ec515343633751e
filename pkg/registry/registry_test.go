package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	r, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, r)

	for _, c := range r.Chains() {
		assert.False(t, c.Testnet, "mainnet registry must not include testnets")

		_, ok := r.SpokePool(c.ID)
		assert.True(t, ok, "chain %s missing spoke pool", c.Name)

		_, ok = r.WrappedNative(c.ID)
		assert.True(t, ok, "chain %s missing wrapped native", c.Name)
	}
}

func TestNewIncludesTestnets(t *testing.T) {
	r, err := New(true)
	require.NoError(t, err)

	_, ok := r.Chain(11155111)
	assert.True(t, ok, "sepolia should be present")
	_, ok = r.Chain(84532)
	assert.True(t, ok, "base sepolia should be present")
}

func TestTokenLookup(t *testing.T) {
	r, err := New(false)
	require.NoError(t, err)

	eth, ok := r.Token(8453, "eth")
	require.True(t, ok)
	assert.True(t, eth.Native)
	assert.Equal(t, zeroAddress, eth.Address)
	assert.Equal(t, uint8(18), eth.Decimals)

	usdc, ok := r.Token(8453, "USDC")
	require.True(t, ok)
	assert.False(t, usdc.Native)
	assert.Equal(t, uint8(6), usdc.Decimals)

	_, ok = r.Token(8453, "DOGE")
	assert.False(t, ok)
}

func TestChainByName(t *testing.T) {
	r, err := New(false)
	require.NoError(t, err)

	c, ok := r.ChainByName("arbitrum")
	require.True(t, ok)
	assert.Equal(t, int64(42161), c.ID)

	_, ok = r.ChainByName("near")
	assert.False(t, ok)
}

func TestExplorerTxURL(t *testing.T) {
	r, err := New(false)
	require.NoError(t, err)

	url := r.ExplorerTxURL(1, "0xabc")
	assert.Equal(t, "https://etherscan.io/tx/0xabc", url)
	assert.Empty(t, r.ExplorerTxURL(999, "0xabc"))
}

func TestRouteAvailable(t *testing.T) {
	eth := Token{Symbol: "ETH", Native: true}
	weth := Token{Symbol: "WETH"}
	usdc := Token{Symbol: "USDC"}
	usdt := Token{Symbol: "USDT"}

	assert.True(t, RouteAvailable(usdc, usdc), "same symbol is always available")
	assert.True(t, RouteAvailable(eth, weth), "native to wrapped is available")
	assert.True(t, RouteAvailable(weth, eth), "wrapped to native is available")
	assert.False(t, RouteAvailable(usdc, usdt), "distinct stables are unavailable")
	assert.False(t, RouteAvailable(eth, usdc))
}
