package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"banny-bridge/pkg/apperrors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Connector is the wallet surface the bridge session depends on.
type Connector interface {
	Connect(ctx context.Context) (common.Address, error)
	Disconnect()
	SwitchChain(ctx context.Context, chainID int64) error

	// Address returns the connected account, if any.
	Address() (common.Address, bool)
	// ChainID returns the wallet's active chain, if any.
	ChainID() (int64, bool)
}

// KeyWallet is a local private-key wallet over per-chain RPC endpoints. It
// stands in for browser wallet infrastructure: Connect derives the account
// from the configured key, SwitchChain moves the active chain between
// configured networks.
type KeyWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	rpcs       map[int64]string
	logger     *zap.Logger

	mu          sync.Mutex
	connected   bool
	activeChain int64
	clients     map[int64]*ethclient.Client
}

var _ Connector = (*KeyWallet)(nil)

// NewKeyWallet creates a wallet from a hex private key and a chain-id to
// RPC-endpoint map. An empty key yields a wallet that fails on Connect.
func NewKeyWallet(privateKeyHex string, rpcs map[int64]string, logger *zap.Logger) (*KeyWallet, error) {
	w := &KeyWallet{
		rpcs:    rpcs,
		logger:  logger.Named("KeyWallet"),
		clients: make(map[int64]*ethclient.Client),
	}

	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		publicKey, ok := key.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("failed to derive public key")
		}
		w.privateKey = key
		w.address = crypto.PubkeyToAddress(*publicKey)
	}

	return w, nil
}

// Connect marks the wallet connected and returns its account address.
func (w *KeyWallet) Connect(_ context.Context) (common.Address, error) {
	if w.privateKey == nil {
		return common.Address{}, fmt.Errorf("no private key configured; set BANNY_BRIDGE_PRIVATE_KEY")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	w.logger.Debug("Wallet connected", zap.String("address", w.address.Hex()))
	return w.address, nil
}

// Disconnect clears the connected state and the active chain.
func (w *KeyWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
	w.activeChain = 0
}

// SwitchChain moves the active chain. It rejects chains with no configured
// RPC endpoint so later reads and writes cannot dangle.
func (w *KeyWallet) SwitchChain(_ context.Context, chainID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.connected {
		return apperrors.ErrNotConnected
	}
	if _, ok := w.rpcs[chainID]; !ok {
		return fmt.Errorf("chain %d: no RPC endpoint configured", chainID)
	}
	w.activeChain = chainID
	w.logger.Debug("Switched chain", zap.Int64("chainId", chainID))
	return nil
}

// Address returns the connected account, if any.
func (w *KeyWallet) Address() (common.Address, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return common.Address{}, false
	}
	return w.address, true
}

// ChainID returns the active chain, if one has been selected.
func (w *KeyWallet) ChainID() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected || w.activeChain == 0 {
		return 0, false
	}
	return w.activeChain, true
}

// Key exposes the signing key for transaction submission.
func (w *KeyWallet) Key() *ecdsa.PrivateKey {
	return w.privateKey
}

// Client returns a cached RPC client for a chain, dialing on first use.
func (w *KeyWallet) Client(_ context.Context, chainID int64) (*ethclient.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.clients[chainID]; ok {
		return c, nil
	}

	rpcURL, ok := w.rpcs[chainID]
	if !ok {
		return nil, fmt.Errorf("chain %d: no RPC endpoint configured", chainID)
	}

	c, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint for chain %d: %w", chainID, err)
	}
	w.clients[chainID] = c
	return c, nil
}

// Close releases all RPC connections.
func (w *KeyWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.clients {
		c.Close()
	}
	w.clients = make(map[int64]*ethclient.Client)
}
