package evm

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestERC20Selectors(t *testing.T) {
	// Canonical 4-byte selectors; a mismatch means the ABI json drifted.
	assert.Equal(t, "70a08231", hex.EncodeToString(erc20ABI.Methods["balanceOf"].ID))
	assert.Equal(t, "dd62ed3e", hex.EncodeToString(erc20ABI.Methods["allowance"].ID))
	assert.Equal(t, "095ea7b3", hex.EncodeToString(erc20ABI.Methods["approve"].ID))
}

func TestDepositV3Shape(t *testing.T) {
	method, ok := spokePoolABI.Methods["depositV3"]
	require.True(t, ok)
	assert.Len(t, method.Inputs, 12)
	// The legacy Payable bool is only set from a literal "payable" JSON key;
	// modern ABI json carries stateMutability instead.
	assert.Equal(t, "payable", method.StateMutability)
}

func TestApprovePacking(t *testing.T) {
	spender := common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64")
	data, err := erc20ABI.Pack("approve", spender, big.NewInt(150000000))
	require.NoError(t, err)

	assert.Equal(t, "095ea7b3", hex.EncodeToString(data[:4]))
	assert.Len(t, data, 4+32+32)
}

func TestDepositV3Packing(t *testing.T) {
	depositor := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	data, err := spokePoolABI.Pack("depositV3",
		depositor,
		depositor,
		common.HexToAddress("0x4200000000000000000000000000000000000006"),
		common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
		big.NewInt(1e18),
		big.NewInt(997e15),
		big.NewInt(42161),
		common.Address{},
		uint32(1714000000),
		uint32(1714010800),
		uint32(0),
		[]byte{},
	)
	require.NoError(t, err)
	assert.Equal(t, spokePoolABI.Methods["depositV3"].ID, data[:4])
}
