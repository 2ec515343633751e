package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ClientProvider hands out an RPC client per chain.
type ClientProvider interface {
	Client(ctx context.Context, chainID int64) (*ethclient.Client, error)
}

// Reader performs the chain reads the session needs: native balance, ERC-20
// balance, and ERC-20 allowance. All reads are chain-scoped through the
// provider.
type Reader struct {
	provider ClientProvider
	logger   *zap.Logger
}

// NewReader creates a chain reader.
func NewReader(provider ClientProvider, logger *zap.Logger) *Reader {
	return &Reader{provider: provider, logger: logger.Named("Reader")}
}

// NativeBalance reads the chain-native balance of an account.
func (r *Reader) NativeBalance(ctx context.Context, chainID int64, owner common.Address) (*big.Int, error) {
	c, err := r.provider.Client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	balance, err := c.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// TokenBalance reads an ERC-20 balance via balanceOf.
func (r *Reader) TokenBalance(ctx context.Context, chainID int64, token, owner common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}
	return r.callUint256(ctx, chainID, token, data, "balanceOf")
}

// Allowance reads how much of the owner's token the spender may pull.
func (r *Reader) Allowance(ctx context.Context, chainID int64, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance data: %w", err)
	}
	return r.callUint256(ctx, chainID, token, data, "allowance")
}

func (r *Reader) callUint256(ctx context.Context, chainID int64, to common.Address, data []byte, method string) (*big.Int, error) {
	c, err := r.provider.Client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	result, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	return new(big.Int).SetBytes(result), nil
}
