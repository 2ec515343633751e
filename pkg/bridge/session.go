package bridge

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"banny-bridge/pkg/apperrors"
	"banny-bridge/pkg/registry"
	"banny-bridge/pkg/types"
	"banny-bridge/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Default timing for the quote lifecycle.
const (
	DefaultDebounceInterval = 500 * time.Millisecond
	DefaultRefreshInterval  = 30 * time.Second
	DefaultSettleDelay      = 2 * time.Second
)

// QuoteService fetches a bridging quote for a route and raw amount.
type QuoteService interface {
	GetSuggestedFees(ctx context.Context, originChainID, destinationChainID int64, inputToken, outputToken common.Address, amount *big.Int) (*types.Quote, error)
}

// PriceSource serves USD prices and supports explicit invalidation.
type PriceSource interface {
	Price(ctx context.Context, symbol string) float64
	Invalidate()
}

// ChainReader performs the on-chain reads the session depends on.
type ChainReader interface {
	NativeBalance(ctx context.Context, chainID int64, owner common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, chainID int64, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, chainID int64, token, owner, spender common.Address) (*big.Int, error)
}

// TxSubmitter submits approval and deposit transactions and waits for their
// receipts.
type TxSubmitter interface {
	Approve(ctx context.Context, chainID int64, token, spender common.Address, amount *big.Int) (common.Hash, error)
	Deposit(ctx context.Context, chainID int64, params types.DepositParams) (common.Hash, error)
	WaitForReceipt(ctx context.Context, chainID int64, txHash common.Hash) (bool, error)
}

// Selection is one side of the route: a chain and one of its tokens.
type Selection struct {
	Chain registry.Chain
	Token registry.Token
}

// Collaborators are the external services a session orchestrates.
type Collaborators struct {
	Registry  *registry.Registry
	Quotes    QuoteService
	Prices    PriceSource
	Reader    ChainReader
	Submitter TxSubmitter
	Wallet    wallet.Connector
}

// Option customizes session timing.
type Option func(*Session)

// WithDebounce overrides the quote debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounceInterval = d }
}

// WithRefreshInterval overrides the periodic quote refresh interval.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Session) { s.refreshInterval = d }
}

// WithSettleDelay overrides the post-confirmation balance re-read delay.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) { s.settleDelay = d }
}

// Session reconciles wallet state, on-chain reads, remote quotes, and
// transaction lifecycles into one consistent decision about the next user
// action. All mutation happens under one mutex; asynchronous completions
// re-enter through it and are gated by generation counters, so a completion
// issued for superseded inputs is discarded rather than applied.
type Session struct {
	reg       *registry.Registry
	quotes    QuoteService
	prices    PriceSource
	reader    ChainReader
	submitter TxSubmitter
	wallet    wallet.Connector
	logger    *zap.Logger

	debounceInterval time.Duration
	refreshInterval  time.Duration
	settleDelay      time.Duration

	mu     sync.Mutex
	closed bool

	from      Selection
	to        Selection
	amount    string
	recipient *common.Address

	quote    *types.Quote
	quoteErr error
	fetching bool

	// quoteGen is bumped on every issuance; a completion carrying an older
	// generation is dropped. This replaces per-closure cancellation flags.
	quoteGen uint64

	debounce *time.Timer
	refresh  *time.Timer

	balance    *big.Int
	allowance  *big.Int
	balanceGen uint64

	tx          *TxTracker
	settleTimer *time.Timer
}

// NewSession creates a session with an initial route selection.
func NewSession(c Collaborators, from, to Selection, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		reg:       c.Registry,
		quotes:    c.Quotes,
		prices:    c.Prices,
		reader:    c.Reader,
		submitter: c.Submitter,
		wallet:    c.Wallet,
		logger:    logger.Named("Session"),

		debounceInterval: DefaultDebounceInterval,
		refreshInterval:  DefaultRefreshInterval,
		settleDelay:      DefaultSettleDelay,

		from: from,
		to:   to,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close tears the session down: all timers are stopped and every outstanding
// completion is invalidated so nothing lands afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.quoteGen++
	s.balanceGen++
	s.stopTimerLocked(&s.debounce)
	s.stopTimerLocked(&s.refresh)
	s.stopTimerLocked(&s.settleTimer)
}

func (s *Session) stopTimerLocked(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// SetAmount updates the typed amount and reschedules the quote fetch.
func (s *Session) SetAmount(amount string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amount = amount
	s.scheduleQuoteLocked()
}

// SetFrom updates the source selection. Balance and allowance are cleared
// immediately (they are keyed to the old selection) and re-read.
func (s *Session) SetFrom(sel Selection) {
	s.mu.Lock()
	s.from = sel
	s.balance = nil
	s.allowance = nil
	s.scheduleQuoteLocked()
	s.mu.Unlock()

	s.RefreshBalances()
}

// SetTo updates the destination selection and reschedules the quote fetch.
func (s *Session) SetTo(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.to = sel
	s.scheduleQuoteLocked()
}

// SetRecipient sets or clears the destination address override.
func (s *Session) SetRecipient(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr == "" {
		s.recipient = nil
		return nil
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid recipient address: %s", addr)
	}
	a := common.HexToAddress(addr)
	s.recipient = &a
	return nil
}

// RefreshQuote triggers a manual quote refresh through the same debounced
// path as an input change.
func (s *Session) RefreshQuote() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleQuoteLocked()
}

// scheduleQuoteLocked is the single entry point for quote scheduling. It
// supersedes any in-flight fetch, clears the quote synchronously when no
// valid positive amount is present, and otherwise arms the debounce timer.
func (s *Session) scheduleQuoteLocked() {
	s.quoteGen++
	gen := s.quoteGen

	s.stopTimerLocked(&s.refresh)
	s.stopTimerLocked(&s.debounce)

	raw, err := ParseAmount(s.amount, s.from.Token.Decimals)
	if err != nil || raw.Sign() <= 0 {
		s.quote = nil
		s.quoteErr = nil
		s.fetching = false
		return
	}

	s.fetching = false
	s.debounce = time.AfterFunc(s.debounceInterval, func() { s.fireQuote(gen) })
}

// quoteRequest is the tuple a fetch was issued for, captured at fire time.
type quoteRequest struct {
	originChainID      int64
	destinationChainID int64
	inputToken         common.Address
	outputToken        common.Address
	amount             *big.Int
}

// quoteRequestLocked resolves the current selection into remote-call
// parameters, substituting wrapped-native addresses for native sentinels.
// It fails synchronously, before any network call, when a mapping is
// missing.
func (s *Session) quoteRequestLocked() (quoteRequest, error) {
	raw, err := ParseAmount(s.amount, s.from.Token.Decimals)
	if err != nil {
		return quoteRequest{}, err
	}

	input, err := s.erc20AddressLocked(s.from)
	if err != nil {
		return quoteRequest{}, err
	}
	output, err := s.erc20AddressLocked(s.to)
	if err != nil {
		return quoteRequest{}, err
	}

	return quoteRequest{
		originChainID:      s.from.Chain.ID,
		destinationChainID: s.to.Chain.ID,
		inputToken:         input,
		outputToken:        output,
		amount:             raw,
	}, nil
}

// erc20AddressLocked returns the token address to hand to the protocol: the
// token's own address, or the chain's wrapped-native for the native
// sentinel.
func (s *Session) erc20AddressLocked(sel Selection) (common.Address, error) {
	if !sel.Token.Native {
		return sel.Token.Address, nil
	}
	wrapped, ok := s.reg.WrappedNative(sel.Chain.ID)
	if !ok {
		return common.Address{}, fmt.Errorf("%w %d", apperrors.ErrNoWrappedNative, sel.Chain.ID)
	}
	return wrapped, nil
}

// fireQuote runs when the debounce settles. It is a no-op if the inputs
// changed since it was armed.
func (s *Session) fireQuote(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.quoteGen {
		s.mu.Unlock()
		return
	}

	req, err := s.quoteRequestLocked()
	if err != nil {
		// Input error: never reaches the network, shown as "no quote".
		s.logger.Warn("Quote request not buildable", zap.Error(err))
		s.quote = nil
		s.quoteErr = nil
		s.fetching = false
		s.mu.Unlock()
		return
	}

	s.fetching = true

	// The periodic refresh restarts relative to this fetch.
	s.stopTimerLocked(&s.refresh)
	s.refresh = time.AfterFunc(s.refreshInterval, s.refreshTick)
	s.mu.Unlock()

	go s.doFetch(gen, req)
}

// refreshTick re-issues the quote fetch on the fixed interval while a valid
// amount is present, superseding whatever was in flight.
func (s *Session) refreshTick() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	raw, err := ParseAmount(s.amount, s.from.Token.Decimals)
	if err != nil || raw.Sign() <= 0 {
		s.mu.Unlock()
		return
	}

	req, err := s.quoteRequestLocked()
	if err != nil {
		s.mu.Unlock()
		return
	}

	s.quoteGen++
	gen := s.quoteGen
	s.fetching = true
	s.refresh = time.AfterFunc(s.refreshInterval, s.refreshTick)
	s.mu.Unlock()

	go s.doFetch(gen, req)
}

// doFetch performs the remote call and commits the result only if its
// generation is still current; stale completions are dropped silently.
func (s *Session) doFetch(gen uint64, req quoteRequest) {
	quote, err := s.quotes.GetSuggestedFees(context.Background(),
		req.originChainID, req.destinationChainID, req.inputToken, req.outputToken, req.amount)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.quoteGen {
		s.logger.Debug("Discarding stale quote result", zap.Uint64("gen", gen), zap.Uint64("current", s.quoteGen))
		return
	}

	s.fetching = false
	if err != nil {
		s.logger.Warn("Quote fetch failed", zap.Error(err))
		s.quote = nil
		s.quoteErr = err
		return
	}
	s.quote = quote
	s.quoteErr = nil
}

// Connect connects the wallet and kicks off the balance reads.
func (s *Session) Connect(ctx context.Context) (common.Address, error) {
	addr, err := s.wallet.Connect(ctx)
	if err != nil {
		return common.Address{}, err
	}
	s.RefreshBalances()
	return addr, nil
}

// SwitchToFromChain asks the wallet to switch to the selected source chain.
func (s *Session) SwitchToFromChain(ctx context.Context) error {
	s.mu.Lock()
	chainID := s.from.Chain.ID
	s.mu.Unlock()

	if err := s.wallet.SwitchChain(ctx, chainID); err != nil {
		return err
	}
	s.RefreshBalances()
	return nil
}

// RefreshBalances re-reads the from-token balance and, for non-native
// tokens, the spoke-pool allowance. Reads are skipped entirely without a
// wallet address.
func (s *Session) RefreshBalances() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	owner, ok := s.wallet.Address()
	if !ok {
		s.balance = nil
		s.allowance = nil
		s.mu.Unlock()
		return
	}

	s.balanceGen++
	gen := s.balanceGen
	chainID := s.from.Chain.ID
	token := s.from.Token
	spoke, hasSpoke := s.reg.SpokePool(chainID)
	s.mu.Unlock()

	go func() {
		ctx := context.Background()

		var balance, allowance *big.Int
		var balErr, allowErr error

		if token.Native {
			balance, balErr = s.reader.NativeBalance(ctx, chainID, owner)
		} else {
			balance, balErr = s.reader.TokenBalance(ctx, chainID, token.Address, owner)
			if hasSpoke {
				allowance, allowErr = s.reader.Allowance(ctx, chainID, token.Address, owner, spoke)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.balanceGen {
			return
		}

		if balErr != nil {
			s.logger.Warn("Balance read failed", zap.Error(balErr))
		} else {
			s.balance = balance
		}
		if allowErr != nil {
			s.logger.Warn("Allowance read failed", zap.Error(allowErr))
		} else if !token.Native {
			s.allowance = allowance
		}
	}()
}

// refreshAllowanceSync re-reads the allowance in the calling goroutine so a
// confirmed approval is reflected before the next decision evaluation.
func (s *Session) refreshAllowanceSync(ctx context.Context) {
	s.mu.Lock()
	owner, ok := s.wallet.Address()
	chainID := s.from.Chain.ID
	token := s.from.Token
	spoke, hasSpoke := s.reg.SpokePool(chainID)
	s.mu.Unlock()

	if !ok || token.Native || !hasSpoke {
		return
	}

	allowance, err := s.reader.Allowance(ctx, chainID, token.Address, owner, spoke)
	if err != nil {
		s.logger.Warn("Allowance refetch failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowance = allowance
}

// Approve submits an approval for exactly the requested raw amount to the
// source chain's spoke pool and blocks until it is mined. On confirmation
// the allowance is re-read before returning.
func (s *Session) Approve(ctx context.Context) (common.Hash, error) {
	s.mu.Lock()
	if s.tx != nil && s.tx.Active() {
		s.mu.Unlock()
		return common.Hash{}, apperrors.ErrTxInFlight
	}
	if state := s.decisionLocked(); state != NeedsApproval {
		s.mu.Unlock()
		return common.Hash{}, fmt.Errorf("approval not required in state %s", state)
	}

	raw, err := ParseAmount(s.amount, s.from.Token.Decimals)
	if err != nil {
		s.mu.Unlock()
		return common.Hash{}, err
	}
	chainID := s.from.Chain.ID
	token := s.from.Token.Address
	spoke, ok := s.reg.SpokePool(chainID)
	if !ok {
		s.mu.Unlock()
		return common.Hash{}, fmt.Errorf("%w %d", apperrors.ErrNoSpokePool, chainID)
	}

	tracker := newTxTracker(TxApprove)
	s.tx = tracker
	s.mu.Unlock()

	hash, err := s.submitter.Approve(ctx, chainID, token, spoke, raw)
	if err != nil {
		tracker.fail(err.Error())
		return common.Hash{}, err
	}
	tracker.setHash(hash)

	ok, err = s.submitter.WaitForReceipt(ctx, chainID, hash)
	if err != nil {
		tracker.fail(err.Error())
		return hash, err
	}
	if !ok {
		tracker.fail("approval transaction reverted")
		return hash, fmt.Errorf("approval transaction reverted")
	}

	tracker.confirm()
	s.refreshAllowanceSync(ctx)
	return hash, nil
}

// Bridge submits the deposit built from the quote current at submission
// time and blocks until it is mined. On confirmation the price cache is
// invalidated and a delayed balance re-read is scheduled.
func (s *Session) Bridge(ctx context.Context) (common.Hash, error) {
	s.mu.Lock()
	if s.tx != nil && s.tx.Active() {
		s.mu.Unlock()
		return common.Hash{}, apperrors.ErrTxInFlight
	}
	if state := s.decisionLocked(); state != ReadyToBridge {
		s.mu.Unlock()
		return common.Hash{}, fmt.Errorf("cannot bridge in state %s", state)
	}

	params, err := s.buildDepositLocked()
	if err != nil {
		s.mu.Unlock()
		return common.Hash{}, err
	}
	chainID := s.from.Chain.ID

	tracker := newTxTracker(TxDeposit)
	s.tx = tracker
	s.mu.Unlock()

	hash, err := s.submitter.Deposit(ctx, chainID, params)
	if err != nil {
		tracker.fail(err.Error())
		return common.Hash{}, err
	}
	tracker.setHash(hash)

	ok, err := s.submitter.WaitForReceipt(ctx, chainID, hash)
	if err != nil {
		tracker.fail(err.Error())
		return hash, err
	}
	if !ok {
		tracker.fail("deposit transaction reverted")
		return hash, fmt.Errorf("deposit transaction reverted")
	}

	tracker.confirm()
	s.onDepositConfirmed()
	return hash, nil
}

// onDepositConfirmed forces fresh prices and schedules the balance re-read
// after a settle delay, giving nodes time to reflect the new state.
func (s *Session) onDepositConfirmed() {
	s.prices.Invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopTimerLocked(&s.settleTimer)
	s.settleTimer = time.AfterFunc(s.settleDelay, s.RefreshBalances)
}

// Decision evaluates the action state machine against current state.
func (s *Session) Decision() ActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decisionLocked()
}

func (s *Session) decisionLocked() ActionState {
	_, connected := s.wallet.Address()
	activeChain, hasChain := s.wallet.ChainID()

	var rawAmount *big.Int
	if raw, err := ParseAmount(s.amount, s.from.Token.Decimals); err == nil && raw.Sign() > 0 {
		rawAmount = raw
	}

	depositInFlight := s.tx != nil && s.tx.Kind() == TxDeposit && s.tx.Active()

	return decide(decisionInput{
		connected:   connected,
		activeChain: activeChain,
		hasChain:    hasChain,
		fromChain:   s.from.Chain.ID,

		fromNative: s.from.Token.Native,
		allowance:  s.allowance,
		rawAmount:  rawAmount,

		quote:           s.quote,
		quoteErr:        s.quoteErr,
		fetching:        s.fetching,
		depositInFlight: depositInFlight,
	})
}

// USDPrices fetches the USD prices for both route sides concurrently. Each
// side resolves independently; a failure on one never blocks the other.
func (s *Session) USDPrices(ctx context.Context) (fromUSD, toUSD float64) {
	s.mu.Lock()
	fromSym := s.from.Token.Symbol
	toSym := s.to.Token.Symbol
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fromUSD = s.prices.Price(ctx, fromSym)
	}()
	go func() {
		defer wg.Done()
		toUSD = s.prices.Price(ctx, toSym)
	}()
	wg.Wait()
	return fromUSD, toUSD
}

// From returns the source selection.
func (s *Session) From() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.from
}

// To returns the destination selection.
func (s *Session) To() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.to
}

// Quote returns the current quote, nil when none.
func (s *Session) Quote() *types.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote
}

// QuoteError returns the classified error from the last failed fetch.
func (s *Session) QuoteError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quoteErr
}

// IsFetching reports whether a quote fetch is in flight.
func (s *Session) IsFetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching
}

// Balance returns the from-token balance, zero when unknown or no wallet is
// connected.
func (s *Session) Balance() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance == nil {
		return big.NewInt(0)
	}
	return s.balance
}

// Allowance returns the spoke-pool allowance for a non-native from-token,
// nil while unknown.
func (s *Session) Allowance() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowance
}

// Tx returns the most recent transaction lifecycle, nil before any action.
func (s *Session) Tx() *TxTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx
}
