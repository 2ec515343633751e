package bridge

import (
	"fmt"
	"math/big"

	"banny-bridge/pkg/apperrors"
	"banny-bridge/pkg/types"
)

// BuildDeposit assembles the depositV3 parameters from the quote current at
// call time. Quote-derived fields are copied verbatim; the output amount is
// never recomputed locally because the remote quote already encodes the fee
// deduction.
func (s *Session) BuildDeposit() (types.DepositParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildDepositLocked()
}

func (s *Session) buildDepositLocked() (types.DepositParams, error) {
	if s.quote == nil {
		return types.DepositParams{}, apperrors.ErrNoQuote
	}
	if s.quote.OutputAmount == nil {
		return types.DepositParams{}, fmt.Errorf("%w: quote has no output amount", apperrors.ErrNoQuote)
	}

	depositor, ok := s.wallet.Address()
	if !ok {
		return types.DepositParams{}, apperrors.ErrNotConnected
	}

	spoke, ok := s.reg.SpokePool(s.from.Chain.ID)
	if !ok {
		return types.DepositParams{}, fmt.Errorf("%w %d", apperrors.ErrNoSpokePool, s.from.Chain.ID)
	}

	raw, err := ParseAmount(s.amount, s.from.Token.Decimals)
	if err != nil {
		return types.DepositParams{}, err
	}

	inputToken, err := s.erc20AddressLocked(s.from)
	if err != nil {
		return types.DepositParams{}, err
	}
	outputToken, err := s.erc20AddressLocked(s.to)
	if err != nil {
		return types.DepositParams{}, err
	}

	recipient := depositor
	if s.recipient != nil {
		recipient = *s.recipient
	}

	value := big.NewInt(0)
	if s.from.Token.Native {
		value = raw
	}

	return types.DepositParams{
		SpokePool: spoke,

		Depositor: depositor,
		Recipient: recipient,

		InputToken:  inputToken,
		OutputToken: outputToken,

		InputAmount:  raw,
		OutputAmount: s.quote.OutputAmount,

		DestinationChainID: s.to.Chain.ID,

		ExclusiveRelayer:    s.quote.ExclusiveRelayer,
		QuoteTimestamp:      s.quote.Timestamp,
		FillDeadline:        s.quote.FillDeadline,
		ExclusivityDeadline: s.quote.ExclusivityDeadline,
		Message:             []byte{},

		Value: value,
	}, nil
}
