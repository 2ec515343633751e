package bridge

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"banny-bridge/pkg/apperrors"
	"banny-bridge/pkg/registry"
	"banny-bridge/pkg/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- stub collaborators ---

type fakeWallet struct {
	mu        sync.Mutex
	addr      common.Address
	connected bool
	chain     int64
}

func (w *fakeWallet) Connect(_ context.Context) (common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	return w.addr, nil
}

func (w *fakeWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
	w.chain = 0
}

func (w *fakeWallet) SwitchChain(_ context.Context, chainID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chain = chainID
	return nil
}

func (w *fakeWallet) Address() (common.Address, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addr, w.connected
}

func (w *fakeWallet) ChainID() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected || w.chain == 0 {
		return 0, false
	}
	return w.chain, true
}

type quoteCall struct {
	origin, dest  int64
	input, output common.Address
	amount        *big.Int
}

type fakeQuotes struct {
	mu    sync.Mutex
	calls []quoteCall
	fn    func(quoteCall) (*types.Quote, error)
}

func (q *fakeQuotes) GetSuggestedFees(_ context.Context, origin, dest int64, input, output common.Address, amount *big.Int) (*types.Quote, error) {
	call := quoteCall{origin: origin, dest: dest, input: input, output: output, amount: amount}
	q.mu.Lock()
	q.calls = append(q.calls, call)
	fn := q.fn
	q.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return testQuote(), nil
}

func (q *fakeQuotes) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

func (q *fakeQuotes) lastCall() quoteCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[len(q.calls)-1]
}

type fakePrices struct {
	mu            sync.Mutex
	invalidations int
}

func (p *fakePrices) Price(_ context.Context, _ string) float64 { return 1.0 }

func (p *fakePrices) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidations++
}

func (p *fakePrices) invalidationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invalidations
}

type fakeReader struct {
	mu             sync.Mutex
	native         *big.Int
	token          *big.Int
	allowance      *big.Int
	nativeReads    int
	tokenReads     int
	allowanceReads int
}

func (r *fakeReader) NativeBalance(_ context.Context, _ int64, _ common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nativeReads++
	return r.native, nil
}

func (r *fakeReader) TokenBalance(_ context.Context, _ int64, _, _ common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenReads++
	return r.token, nil
}

func (r *fakeReader) Allowance(_ context.Context, _ int64, _, _, _ common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowanceReads++
	return r.allowance, nil
}

func (r *fakeReader) setAllowance(v *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowance = v
}

func (r *fakeReader) balanceReadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nativeReads + r.tokenReads
}

type approveCall struct {
	chainID        int64
	token, spender common.Address
	amount         *big.Int
}

type fakeSubmitter struct {
	mu           sync.Mutex
	approveCalls []approveCall
	depositCalls []types.DepositParams
	approveErr   error
	depositErr   error
	receiptOK    bool
	onApprove    func()
	waitGate     chan struct{}
}

func (s *fakeSubmitter) Approve(_ context.Context, chainID int64, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	s.mu.Lock()
	s.approveCalls = append(s.approveCalls, approveCall{chainID: chainID, token: token, spender: spender, amount: amount})
	onApprove := s.onApprove
	err := s.approveErr
	s.mu.Unlock()

	if err != nil {
		return common.Hash{}, err
	}
	if onApprove != nil {
		onApprove()
	}
	return common.HexToHash("0xaaa1"), nil
}

func (s *fakeSubmitter) Deposit(_ context.Context, _ int64, params types.DepositParams) (common.Hash, error) {
	s.mu.Lock()
	s.depositCalls = append(s.depositCalls, params)
	err := s.depositErr
	s.mu.Unlock()

	if err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash("0xddd1"), nil
}

func (s *fakeSubmitter) WaitForReceipt(_ context.Context, _ int64, _ common.Hash) (bool, error) {
	s.mu.Lock()
	gate := s.waitGate
	ok := s.receiptOK
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return ok, nil
}

func (s *fakeSubmitter) lastDeposit() types.DepositParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depositCalls[len(s.depositCalls)-1]
}

// --- harness ---

type harness struct {
	session   *Session
	reg       *registry.Registry
	wallet    *fakeWallet
	quotes    *fakeQuotes
	prices    *fakePrices
	reader    *fakeReader
	submitter *fakeSubmitter
}

func testQuote() *types.Quote {
	return &types.Quote{
		OutputAmount:        big.NewInt(149_000000),
		TotalRelayFee:       types.Fee{Pct: big.NewInt(0), Total: big.NewInt(1_000000)},
		RelayerGasFee:       types.Fee{Pct: big.NewInt(0), Total: big.NewInt(600000)},
		RelayerCapitalFee:   types.Fee{Pct: big.NewInt(0), Total: big.NewInt(400000)},
		Timestamp:           1714000000,
		FillDeadline:        1714010800,
		ExclusivityDeadline: 0,
	}
}

func mustSel(t *testing.T, r *registry.Registry, chainID int64, symbol string) Selection {
	t.Helper()
	c, ok := r.Chain(chainID)
	require.True(t, ok)
	tok, ok := r.Token(chainID, symbol)
	require.True(t, ok)
	return Selection{Chain: c, Token: tok}
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	reg, err := registry.New(false)
	require.NoError(t, err)

	h := &harness{
		reg:    reg,
		wallet: &fakeWallet{addr: common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")},
		quotes: &fakeQuotes{},
		prices: &fakePrices{},
		reader: &fakeReader{
			native: big.NewInt(2e18),
			token:  big.NewInt(500_000000),
		},
		submitter: &fakeSubmitter{receiptOK: true},
	}

	base := []Option{
		WithDebounce(20 * time.Millisecond),
		WithRefreshInterval(time.Hour),
		WithSettleDelay(30 * time.Millisecond),
	}
	base = append(base, opts...)

	h.session = NewSession(Collaborators{
		Registry:  reg,
		Quotes:    h.quotes,
		Prices:    h.prices,
		Reader:    h.reader,
		Submitter: h.submitter,
		Wallet:    h.wallet,
	}, mustSel(t, reg, 8453, "USDC"), mustSel(t, reg, 42161, "USDC"), zap.NewNop(), base...)

	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) connectOn(t *testing.T, chainID int64) {
	t.Helper()
	_, err := h.session.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.wallet.SwitchChain(context.Background(), chainID))
}

func waitForQuote(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Quote() != nil }, time.Second, 2*time.Millisecond)
}

func waitForAllowance(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Allowance() != nil }, time.Second, 2*time.Millisecond)
}

// --- quote lifecycle ---

func TestDebounceCollapsesRapidInput(t *testing.T) {
	h := newHarness(t)

	for _, amount := range []string{"1", "15", "150", "15.5", "150.25"} {
		h.session.SetAmount(amount)
	}

	waitForQuote(t, h.session)
	// One more settle window to catch any extra timer.
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, h.quotes.callCount(), "rapid input must collapse into one fetch")
	assert.Equal(t, big.NewInt(150_250000), h.quotes.lastCall().amount, "fetch must carry the final value")
}

func TestEmptyAmountClearsQuoteSynchronously(t *testing.T) {
	h := newHarness(t)

	for _, amount := range []string{"", "0", "abc"} {
		h.session.SetAmount("1")
		waitForQuote(t, h.session)
		calls := h.quotes.callCount()

		h.session.SetAmount(amount)
		assert.Nil(t, h.session.Quote(), "amount %q must clear the quote immediately", amount)
		assert.False(t, h.session.IsFetching())

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, calls, h.quotes.callCount(), "amount %q must not fetch", amount)

		// Reset for the next case.
		h.session.SetAmount("")
	}
}

func TestStaleQuoteResultDiscarded(t *testing.T) {
	h := newHarness(t)

	slowOut := big.NewInt(111)
	fastOut := big.NewInt(222)
	h.quotes.fn = func(c quoteCall) (*types.Quote, error) {
		q := testQuote()
		if c.dest == 42161 {
			// Selection A: resolves after B has landed.
			time.Sleep(150 * time.Millisecond)
			q.OutputAmount = slowOut
		} else {
			q.OutputAmount = fastOut
		}
		return q, nil
	}

	h.session.SetAmount("1")
	// Let A's fetch get airborne.
	time.Sleep(40 * time.Millisecond)

	h.session.SetTo(mustSel(t, h.reg, 10, "USDC"))

	require.Eventually(t, func() bool {
		q := h.session.Quote()
		return q != nil && q.OutputAmount.Cmp(fastOut) == 0
	}, time.Second, 2*time.Millisecond)

	// Wait out the slow response; it must not overwrite B's quote.
	time.Sleep(200 * time.Millisecond)
	require.NotNil(t, h.session.Quote())
	assert.Equal(t, fastOut, h.session.Quote().OutputAmount, "selection A's late result must be dropped")
}

func TestWrappedNativeSubstitution(t *testing.T) {
	h := newHarness(t)

	h.session.SetFrom(mustSel(t, h.reg, 8453, "ETH"))
	h.session.SetTo(mustSel(t, h.reg, 42161, "ETH"))
	h.session.SetAmount("0.5")

	waitForQuote(t, h.session)

	call := h.quotes.lastCall()
	baseWETH, _ := h.reg.WrappedNative(8453)
	arbWETH, _ := h.reg.WrappedNative(42161)
	assert.Equal(t, baseWETH, call.input, "native input must use the origin chain's WETH")
	assert.Equal(t, arbWETH, call.output, "native output must use the destination chain's WETH")
	assert.NotEqual(t, common.Address{}, call.input)
}

func TestQuoteErrorSetAndCleared(t *testing.T) {
	h := newHarness(t)

	h.quotes.fn = func(quoteCall) (*types.Quote, error) {
		return nil, apperrors.ErrRouteUnsupported
	}
	h.session.SetAmount("1")

	require.Eventually(t, func() bool { return h.session.QuoteError() != nil }, time.Second, 2*time.Millisecond)
	assert.Nil(t, h.session.Quote())
	assert.False(t, h.session.IsFetching(), "in-flight flag must clear on failure")
	assert.ErrorIs(t, h.session.QuoteError(), apperrors.ErrRouteUnsupported)

	// Next successful fetch clears the error.
	h.quotes.fn = nil
	h.session.RefreshQuote()
	waitForQuote(t, h.session)
	assert.NoError(t, h.session.QuoteError())
}

func TestPeriodicRefresh(t *testing.T) {
	h := newHarness(t, WithDebounce(10*time.Millisecond), WithRefreshInterval(50*time.Millisecond))

	h.session.SetAmount("1")

	require.Eventually(t, func() bool {
		return h.quotes.callCount() >= 3
	}, time.Second, 5*time.Millisecond, "quote must refresh on the fixed interval")
}

func TestCloseStopsQuoteActivity(t *testing.T) {
	h := newHarness(t, WithDebounce(100*time.Millisecond))

	h.session.SetAmount("1")
	h.session.Close()

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, h.quotes.callCount(), "no fetch may fire after teardown")
}

// --- balances, allowance, and the decision machine ---

func TestDecisionNeedsWalletThenChain(t *testing.T) {
	h := newHarness(t)

	h.session.SetAmount("150")
	waitForQuote(t, h.session)
	assert.Equal(t, NeedsWalletConnection, h.session.Decision())

	_, err := h.session.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NeedsChainSwitch, h.session.Decision(), "no active chain yet")

	require.NoError(t, h.session.SwitchToFromChain(context.Background()))
	require.Eventually(t, func() bool {
		return h.session.Decision() != NeedsChainSwitch
	}, time.Second, 2*time.Millisecond)
}

func TestApprovalGating(t *testing.T) {
	h := newHarness(t)
	h.reader.setAllowance(big.NewInt(100_000000))

	h.session.SetAmount("150")
	h.connectOn(t, 8453)
	h.session.RefreshBalances()

	waitForQuote(t, h.session)
	waitForAllowance(t, h.session)
	assert.Equal(t, NeedsApproval, h.session.Decision(), "allowance 100 < requested 150")

	h.reader.setAllowance(big.NewInt(200_000000))
	h.session.RefreshBalances()
	require.Eventually(t, func() bool {
		a := h.session.Allowance()
		return a != nil && a.Cmp(big.NewInt(200_000000)) == 0
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, ReadyToBridge, h.session.Decision(), "allowance 200 covers 150")
}

func TestApproveRefetchesAllowance(t *testing.T) {
	h := newHarness(t)
	h.reader.setAllowance(big.NewInt(0))
	h.submitter.onApprove = func() {
		h.reader.setAllowance(big.NewInt(150_000000))
	}

	h.session.SetAmount("150")
	h.connectOn(t, 8453)
	h.session.RefreshBalances()
	waitForQuote(t, h.session)
	waitForAllowance(t, h.session)
	require.Equal(t, NeedsApproval, h.session.Decision())

	hash, err := h.session.Approve(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	// Approval targets the spoke pool with exactly the requested amount.
	require.Len(t, h.submitter.approveCalls, 1)
	call := h.submitter.approveCalls[0]
	spoke, _ := h.reg.SpokePool(8453)
	assert.Equal(t, spoke, call.spender)
	assert.Equal(t, big.NewInt(150_000000), call.amount)

	// Confirmation precedes the allowance refetch, which precedes the next
	// decision evaluation.
	assert.Equal(t, TxConfirmed, h.session.Tx().State())
	assert.Equal(t, big.NewInt(150_000000), h.session.Allowance())
	assert.Equal(t, ReadyToBridge, h.session.Decision())
}

// --- deposit submission ---

func TestBridgeSubmitsQuoteVerbatim(t *testing.T) {
	h := newHarness(t)
	h.reader.setAllowance(big.NewInt(1_000_000000))

	h.session.SetAmount("150")
	h.connectOn(t, 8453)
	h.session.RefreshBalances()
	waitForQuote(t, h.session)
	waitForAllowance(t, h.session)
	require.Equal(t, ReadyToBridge, h.session.Decision())

	balReadsBefore := h.reader.balanceReadCount()

	hash, err := h.session.Bridge(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	dep := h.submitter.lastDeposit()
	assert.Equal(t, big.NewInt(150_000000), dep.InputAmount)
	assert.Equal(t, big.NewInt(149_000000), dep.OutputAmount, "output amount copied verbatim from the quote")
	assert.Equal(t, uint32(1714000000), dep.QuoteTimestamp)
	assert.Equal(t, uint32(1714010800), dep.FillDeadline)
	assert.Equal(t, int64(42161), dep.DestinationChainID)
	assert.Equal(t, dep.Depositor, dep.Recipient, "recipient defaults to the depositor")
	assert.Zero(t, dep.Value.Sign(), "ERC-20 deposits attach no native value")

	assert.Equal(t, TxConfirmed, h.session.Tx().State())
	assert.Equal(t, 1, h.prices.invalidationCount(), "confirmed deposit must invalidate the price cache")

	// The balance re-read waits out the settle delay.
	assert.Equal(t, balReadsBefore, h.reader.balanceReadCount(), "no immediate balance read")
	require.Eventually(t, func() bool {
		return h.reader.balanceReadCount() == balReadsBefore+1
	}, time.Second, 5*time.Millisecond)
}

func TestBridgeNativeAttachesValue(t *testing.T) {
	h := newHarness(t)

	h.session.SetFrom(mustSel(t, h.reg, 8453, "ETH"))
	h.session.SetTo(mustSel(t, h.reg, 42161, "ETH"))
	h.session.SetAmount("0.5")
	h.connectOn(t, 8453)
	waitForQuote(t, h.session)
	require.Equal(t, ReadyToBridge, h.session.Decision())

	_, err := h.session.Bridge(context.Background())
	require.NoError(t, err)

	dep := h.submitter.lastDeposit()
	half, _ := new(big.Int).SetString("500000000000000000", 10)
	assert.Equal(t, half, dep.Value, "native deposits attach the input amount as value")
	baseWETH, _ := h.reg.WrappedNative(8453)
	assert.Equal(t, baseWETH, dep.InputToken)
}

func TestRecipientOverride(t *testing.T) {
	h := newHarness(t)

	h.session.SetAmount("150")
	h.connectOn(t, 8453)
	waitForQuote(t, h.session)

	require.Error(t, h.session.SetRecipient("nonsense"))
	require.NoError(t, h.session.SetRecipient("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))

	params, err := h.session.BuildDeposit()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), params.Recipient)

	require.NoError(t, h.session.SetRecipient(""))
	params, err = h.session.BuildDeposit()
	require.NoError(t, err)
	assert.Equal(t, params.Depositor, params.Recipient)
}

func TestBuildDepositWithoutQuote(t *testing.T) {
	h := newHarness(t)
	h.connectOn(t, 8453)

	_, err := h.session.BuildDeposit()
	assert.ErrorIs(t, err, apperrors.ErrNoQuote)
}

func TestSecondActionBlockedWhileInFlight(t *testing.T) {
	h := newHarness(t)
	h.reader.setAllowance(big.NewInt(1_000_000000))
	h.submitter.waitGate = make(chan struct{})

	h.session.SetAmount("150")
	h.connectOn(t, 8453)
	h.session.RefreshBalances()
	waitForQuote(t, h.session)
	waitForAllowance(t, h.session)
	require.Equal(t, ReadyToBridge, h.session.Decision())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.session.Bridge(context.Background())
	}()

	require.Eventually(t, func() bool {
		tx := h.session.Tx()
		return tx != nil && tx.Active()
	}, time.Second, 2*time.Millisecond)

	assert.Equal(t, ActionDisabled, h.session.Decision(), "deposit in flight disables the action")
	_, err := h.session.Bridge(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTxInFlight)

	close(h.submitter.waitGate)
	<-done
	assert.Equal(t, TxConfirmed, h.session.Tx().State())
}

func TestUSDPricesFanOut(t *testing.T) {
	h := newHarness(t)

	fromUSD, toUSD := h.session.USDPrices(context.Background())
	assert.Equal(t, 1.0, fromUSD)
	assert.Equal(t, 1.0, toUSD)
}
