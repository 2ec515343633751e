package bridge

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestTxTrackerHappyPath(t *testing.T) {
	tr := newTxTracker(TxDeposit)

	// Awaiting signature from the moment of submission, before any hash.
	assert.Equal(t, TxAwaitingSignature, tr.State())
	assert.True(t, tr.Active())
	assert.False(t, tr.Dismissible())

	hash := common.HexToHash("0x1234")
	tr.setHash(hash)
	assert.Equal(t, TxPendingConfirmation, tr.State())
	assert.Equal(t, hash, tr.Hash())
	assert.False(t, tr.Dismissible())

	tr.confirm()
	assert.Equal(t, TxConfirmed, tr.State())
	assert.False(t, tr.Active())
	assert.True(t, tr.Dismissible())
}

func TestTxTrackerFailure(t *testing.T) {
	tr := newTxTracker(TxApprove)
	tr.fail("user rejected the request")

	assert.Equal(t, TxFailed, tr.State())
	assert.Equal(t, "user rejected the request", tr.Err())
	assert.False(t, tr.Active())
	assert.True(t, tr.Dismissible())
}

func TestTxStateString(t *testing.T) {
	assert.Equal(t, "idle", TxIdle.String())
	assert.Equal(t, "awaiting-signature", TxAwaitingSignature.String())
	assert.Equal(t, "pending-confirmation", TxPendingConfirmation.String())
	assert.Equal(t, "confirmed", TxConfirmed.String())
	assert.Equal(t, "failed", TxFailed.String())
}
