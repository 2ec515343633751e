package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fee is one component of a quote's fee breakdown, as a percentage
// (18-decimal fixed point, as returned by the API) and an absolute total in
// input-token units.
type Fee struct {
	Pct   *big.Int
	Total *big.Int
}

// DepositLimits are the per-route deposit bounds reported with a quote.
type DepositLimits struct {
	MinDeposit                *big.Int
	MaxDeposit                *big.Int
	MaxDepositInstant         *big.Int
	MaxDepositShortDelay      *big.Int
	RecommendedDepositInstant *big.Int
}

// Quote is the result of one suggested-fees computation for a route and
// amount. A quote is never mutated after construction; the session replaces
// it wholesale on every fetch.
type Quote struct {
	// OutputAmount is the exact amount the recipient receives on the
	// destination chain, in destination-token smallest units. It already has
	// all fees deducted and is authoritative; it is never recomputed locally.
	OutputAmount *big.Int

	TotalRelayFee     Fee
	RelayerGasFee     Fee
	RelayerCapitalFee Fee
	LpFee             *Fee

	// Validity window. The spoke pool rejects deposits submitted outside it.
	Timestamp           uint32
	FillDeadline        uint32
	ExclusivityDeadline uint32
	ExclusiveRelayer    common.Address

	IsAmountTooLow bool

	SpokePoolAddress            common.Address
	DestinationSpokePoolAddress common.Address

	EstimatedFillTimeSec int
	QuoteBlock           uint64
	Limits               DepositLimits
}

// DepositParams is everything a depositV3 submission needs. All quote-derived
// fields are copied verbatim from the quote current at build time.
type DepositParams struct {
	SpokePool common.Address

	Depositor common.Address
	Recipient common.Address

	InputToken  common.Address
	OutputToken common.Address

	InputAmount  *big.Int
	OutputAmount *big.Int

	DestinationChainID int64

	ExclusiveRelayer    common.Address
	QuoteTimestamp      uint32
	FillDeadline        uint32
	ExclusivityDeadline uint32
	Message             []byte

	// Value is the native amount attached to the call: the input amount for
	// native-asset deposits, zero otherwise.
	Value *big.Int
}

// BridgeRequest carries the user's parsed intent through the CLI layer.
type BridgeRequest struct {
	Amount        string
	TokenSymbol   string
	ToTokenSymbol string
	FromChain     string
	ToChain       string
	RecipientAddr string
}
