package bridge

import (
	"math/big"

	"banny-bridge/pkg/types"
)

// ActionState is the single derived decision about what the user may do
// next.
type ActionState int

const (
	// ActionDisabled means no action is currently allowed (quote fetch in
	// progress, quote error present, amount too low, and so on).
	ActionDisabled ActionState = iota
	// NeedsWalletConnection means the only available action is connecting a
	// wallet.
	NeedsWalletConnection
	// NeedsChainSwitch means the wallet's active chain differs from the
	// selected source chain and must be switched first.
	NeedsChainSwitch
	// NeedsApproval means the bridge contract's allowance is below the
	// requested amount and an approval must be submitted.
	NeedsApproval
	// ReadyToBridge means a deposit may be submitted.
	ReadyToBridge
)

func (s ActionState) String() string {
	switch s {
	case NeedsWalletConnection:
		return "needs-wallet-connection"
	case NeedsChainSwitch:
		return "needs-chain-switch"
	case NeedsApproval:
		return "needs-approval"
	case ReadyToBridge:
		return "ready-to-bridge"
	default:
		return "disabled"
	}
}

// decisionInput is everything the decision rule looks at, snapshotted so the
// rule itself stays a pure function.
type decisionInput struct {
	connected   bool
	activeChain int64
	hasChain    bool
	fromChain   int64

	fromNative bool
	allowance  *big.Int
	rawAmount  *big.Int

	quote           *types.Quote
	quoteErr        error
	fetching        bool
	depositInFlight bool
}

// decide evaluates the action state machine. The precedence is fixed: chain
// correctness before allowance (reads are chain-scoped), allowance before
// deposit (the spoke pool must be able to pull the tokens).
func decide(in decisionInput) ActionState {
	if !in.connected {
		return NeedsWalletConnection
	}

	if !in.hasChain || in.activeChain != in.fromChain {
		return NeedsChainSwitch
	}

	if !in.fromNative && in.allowance != nil && in.rawAmount != nil && in.allowance.Cmp(in.rawAmount) < 0 {
		return NeedsApproval
	}

	if in.quote != nil && in.quoteErr == nil && !in.quote.IsAmountTooLow && !in.fetching && !in.depositInFlight {
		return ReadyToBridge
	}

	return ActionDisabled
}
