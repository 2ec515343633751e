package bridge

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TxState is one step of a transaction lifecycle.
type TxState int

const (
	TxIdle TxState = iota
	// TxAwaitingSignature is entered synchronously at submission, before any
	// network round trip.
	TxAwaitingSignature
	// TxPendingConfirmation is entered once a transaction hash exists.
	TxPendingConfirmation
	TxConfirmed
	TxFailed
)

func (s TxState) String() string {
	switch s {
	case TxAwaitingSignature:
		return "awaiting-signature"
	case TxPendingConfirmation:
		return "pending-confirmation"
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	default:
		return "idle"
	}
}

// TxKind distinguishes the two user-initiated actions.
type TxKind int

const (
	TxApprove TxKind = iota
	TxDeposit
)

// TxTracker is one transaction lifecycle: idle, awaiting-signature,
// pending-confirmation, then confirmed or failed. At most one tracker is
// active per session at a time.
type TxTracker struct {
	mu    sync.Mutex
	kind  TxKind
	state TxState
	hash  common.Hash
	err   string
}

func newTxTracker(kind TxKind) *TxTracker {
	return &TxTracker{kind: kind, state: TxAwaitingSignature}
}

func (t *TxTracker) setHash(h common.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hash = h
	if t.state == TxAwaitingSignature {
		t.state = TxPendingConfirmation
	}
}

func (t *TxTracker) confirm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TxConfirmed
}

func (t *TxTracker) fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TxFailed
	t.err = msg
}

// Kind reports which action this lifecycle belongs to.
func (t *TxTracker) Kind() TxKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kind
}

// State returns the current lifecycle state.
func (t *TxTracker) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Hash returns the transaction hash, zero until known.
func (t *TxTracker) Hash() common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hash
}

// Err returns the raw provider error message for a failed transaction.
func (t *TxTracker) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Active reports whether the lifecycle is in a non-terminal state. A new
// action may not start while one is active.
func (t *TxTracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == TxAwaitingSignature || t.state == TxPendingConfirmation
}

// Dismissible reports whether the lifecycle view may be closed. Dismissal is
// blocked while a signature or confirmation is outstanding.
func (t *TxTracker) Dismissible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == TxConfirmed || t.state == TxFailed || t.state == TxIdle
}
