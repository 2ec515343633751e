package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Well-known anvil/hardhat test key, account 0.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestConnectDerivesAddress(t *testing.T) {
	w, err := NewKeyWallet(testKey, map[int64]string{8453: "http://localhost:8545"}, zap.NewNop())
	require.NoError(t, err)

	_, ok := w.Address()
	assert.False(t, ok, "address must be hidden before connect")

	addr, err := w.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAddr, addr.Hex())

	got, ok := w.Address()
	require.True(t, ok)
	assert.Equal(t, addr, got)
}

func TestConnectWithoutKey(t *testing.T) {
	w, err := NewKeyWallet("", nil, zap.NewNop())
	require.NoError(t, err)

	_, err = w.Connect(context.Background())
	assert.Error(t, err)
}

func TestSwitchChain(t *testing.T) {
	w, err := NewKeyWallet(testKey, map[int64]string{8453: "http://localhost:8545"}, zap.NewNop())
	require.NoError(t, err)

	// Switching before connecting is rejected.
	require.Error(t, w.SwitchChain(context.Background(), 8453))

	_, err = w.Connect(context.Background())
	require.NoError(t, err)

	_, ok := w.ChainID()
	assert.False(t, ok, "no active chain until a switch")

	require.NoError(t, w.SwitchChain(context.Background(), 8453))
	id, ok := w.ChainID()
	require.True(t, ok)
	assert.Equal(t, int64(8453), id)

	// Unconfigured chain is rejected, active chain unchanged.
	require.Error(t, w.SwitchChain(context.Background(), 42161))
	id, _ = w.ChainID()
	assert.Equal(t, int64(8453), id)
}

func TestDisconnect(t *testing.T) {
	w, err := NewKeyWallet(testKey, map[int64]string{8453: "http://localhost:8545"}, zap.NewNop())
	require.NoError(t, err)

	_, err = w.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.SwitchChain(context.Background(), 8453))

	w.Disconnect()

	_, ok := w.Address()
	assert.False(t, ok)
	_, ok = w.ChainID()
	assert.False(t, ok)
}

func TestInvalidKey(t *testing.T) {
	_, err := NewKeyWallet("not-a-key", nil, zap.NewNop())
	assert.Error(t, err)
}
