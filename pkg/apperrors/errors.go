package apperrors

import "errors"

// Standard application errors
var (
	// ErrRouteUnsupported is returned when the remote quoting service does not
	// support the requested origin/destination token pair.
	ErrRouteUnsupported = errors.New("route not supported")

	// ErrAmountTooLow is returned when the requested amount is below the
	// minimum the bridge will relay.
	ErrAmountTooLow = errors.New("amount too low")

	// ErrInvalidToken is returned when the quoting service rejects a token
	// address.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidAmount is returned when an amount string does not parse
	// against the selected token's decimals.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNoWrappedNative is returned when a chain has no wrapped-native token
	// mapping and a native asset needs an ERC-20 address.
	ErrNoWrappedNative = errors.New("no wrapped-native token for chain")

	// ErrNoSpokePool is returned when no bridge contract is registered for a
	// chain.
	ErrNoSpokePool = errors.New("no spoke pool for chain")

	// ErrNotConnected is returned when an operation requires a connected
	// wallet.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrWrongChain is returned when the wallet's active chain does not match
	// the selected source chain.
	ErrWrongChain = errors.New("wallet connected to wrong chain")

	// ErrNoQuote is returned when a deposit is attempted without a current
	// quote.
	ErrNoQuote = errors.New("no quote available")

	// ErrTxInFlight is returned when a new action is started while another
	// transaction is still pending.
	ErrTxInFlight = errors.New("transaction already in flight")

	// ErrExternalServiceFailure is returned when an interaction with a remote
	// service fails for a reason outside the quote taxonomy.
	ErrExternalServiceFailure = errors.New("external service interaction failed")
)
