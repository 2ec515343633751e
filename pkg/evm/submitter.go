package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"banny-bridge/pkg/types"
	"banny-bridge/pkg/wallet"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const receiptPollInterval = 2 * time.Second

// Submitter signs and sends approval and deposit transactions with the key
// wallet and tracks them to a receipt.
type Submitter struct {
	wallet *wallet.KeyWallet
	logger *zap.Logger
}

// NewSubmitter creates a transaction submitter bound to a key wallet.
func NewSubmitter(w *wallet.KeyWallet, logger *zap.Logger) *Submitter {
	return &Submitter{wallet: w, logger: logger.Named("Submitter")}
}

// Approve submits an ERC-20 approval for exactly the given amount.
func (s *Submitter) Approve(ctx context.Context, chainID int64, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve data: %w", err)
	}

	s.logger.Debug("Submitting approval",
		zap.Int64("chainId", chainID),
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", amount.String()),
	)

	return s.send(ctx, chainID, token, big.NewInt(0), data)
}

// Deposit submits a depositV3 call to the source-chain spoke pool. The
// params carry the native value to attach, if any.
func (s *Submitter) Deposit(ctx context.Context, chainID int64, params types.DepositParams) (common.Hash, error) {
	data, err := spokePoolABI.Pack("depositV3",
		params.Depositor,
		params.Recipient,
		params.InputToken,
		params.OutputToken,
		params.InputAmount,
		params.OutputAmount,
		big.NewInt(params.DestinationChainID),
		params.ExclusiveRelayer,
		params.QuoteTimestamp,
		params.FillDeadline,
		params.ExclusivityDeadline,
		params.Message,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack depositV3 data: %w", err)
	}

	value := params.Value
	if value == nil {
		value = big.NewInt(0)
	}

	s.logger.Debug("Submitting deposit",
		zap.Int64("chainId", chainID),
		zap.String("spokePool", params.SpokePool.Hex()),
		zap.String("inputAmount", params.InputAmount.String()),
		zap.String("outputAmount", params.OutputAmount.String()),
		zap.Int64("destinationChainId", params.DestinationChainID),
	)

	return s.send(ctx, chainID, params.SpokePool, value, data)
}

// WaitForReceipt polls until the transaction is mined, returning whether it
// succeeded. The context bounds the wait.
func (s *Submitter) WaitForReceipt(ctx context.Context, chainID int64, txHash common.Hash) (bool, error) {
	c, err := s.wallet.Client(ctx, chainID)
	if err != nil {
		return false, err
	}

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt.Status == ethtypes.ReceiptStatusSuccessful, nil
		}
		if err != ethereum.NotFound {
			return false, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// send builds, signs, and broadcasts a transaction in the usual order:
// nonce, gas price, gas estimate, sign, send.
func (s *Submitter) send(ctx context.Context, chainID int64, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	key := s.wallet.Key()
	if key == nil {
		return common.Hash{}, fmt.Errorf("no private key configured")
	}

	from, ok := s.wallet.Address()
	if !ok {
		return common.Hash{}, fmt.Errorf("wallet not connected")
	}

	c, err := s.wallet.Client(ctx, chainID)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := c.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := c.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasLimit = gasLimit * 120 / 100 // 20% buffer

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(big.NewInt(chainID)), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash(), nil
}
