// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ember

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// Constants of the chain.
const (
	TxGas                 uint64 = params.TxGas                 // base intrinsic gas of a call tx.
	TxGasContractCreation uint64 = params.TxGasContractCreation // base intrinsic gas of a creation tx.

	InitialGasLimit      uint64 = 12 * 1000 * 1000 // block gas limit unless configured otherwise.
	MinGasLimit          uint64 = 5000
	GasLimitBoundDivisor uint64 = 1024 // from ethereum

	DefaultTransactionGasLimit uint64 = 90 * 1000       // gas limit assumed for txs submitted without one.
	CallGasLimit               uint64 = 1<<53 - 1       // gas cap for simulated calls.
	MaxExtraDataLength                = 32              // max len of header extra data.
	MaxTxSize                         = 64 * 1024       // max encoded size of tx allowed into the pool.
)

var (
	// DefaultGasPrice the gas price assumed for txs submitted without one,
	// and the minimum price the pool admits.
	DefaultGasPrice = big.NewInt(2e9)

	// Ether 10^18 wei.
	Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// Hardfork names a supported EVM rule set. It is passed through to the call
// engine untouched.
type Hardfork string

// Supported hardforks.
const (
	HardforkByzantium      Hardfork = "byzantium"
	HardforkConstantinople Hardfork = "constantinople"
	HardforkPetersburg     Hardfork = "petersburg"
	HardforkIstanbul       Hardfork = "istanbul"
	HardforkMuirGlacier    Hardfork = "muirGlacier"
)

// KnownHardfork returns whether the given hardfork name is supported.
func KnownHardfork(hf Hardfork) bool {
	switch hf {
	case HardforkByzantium, HardforkConstantinople, HardforkPetersburg, HardforkIstanbul, HardforkMuirGlacier:
		return true
	}
	return false
}
