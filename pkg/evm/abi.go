package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ERC-20 surface: what the bridge reads and writes.
const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// Across V3 spoke pool deposit entrypoint.
const spokePoolABIJSON = `[
	{"inputs":[
		{"name":"depositor","type":"address"},
		{"name":"recipient","type":"address"},
		{"name":"inputToken","type":"address"},
		{"name":"outputToken","type":"address"},
		{"name":"inputAmount","type":"uint256"},
		{"name":"outputAmount","type":"uint256"},
		{"name":"destinationChainId","type":"uint256"},
		{"name":"exclusiveRelayer","type":"address"},
		{"name":"quoteTimestamp","type":"uint32"},
		{"name":"fillDeadline","type":"uint32"},
		{"name":"exclusivityDeadline","type":"uint32"},
		{"name":"message","type":"bytes"}
	],"name":"depositV3","outputs":[],"stateMutability":"payable","type":"function"}
]`

var (
	erc20ABI     abi.ABI
	spokePoolABI abi.ABI
)

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("evm: invalid erc20 ABI: " + err.Error())
	}
	spokePoolABI, err = abi.JSON(strings.NewReader(spokePoolABIJSON))
	if err != nil {
		panic("evm: invalid spoke pool ABI: " + err.Error())
	}
}
