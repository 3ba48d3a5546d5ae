// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockchain

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/emberchain/ember/ember"
)

// Options configures the blockchain controller. Use DefaultOptions as the
// base; Validate rejects invalid combinations.
type Options struct {
	// BlockTime is the mining interval in seconds. Zero selects instamine:
	// each executable transaction is mined into its own block immediately.
	BlockTime uint64

	// GasPrice is the minimum gas price the pool admits.
	GasPrice *big.Int

	// BlockGasLimit caps the gas of one block.
	BlockGasLimit uint64

	// DefaultTransactionGasLimit is assumed for txs submitted without a gas
	// limit.
	DefaultTransactionGasLimit uint64

	// CallGasLimit caps the gas of simulated calls.
	CallGasLimit uint64

	// Coinbase receives tx fees. The block reward itself is zero.
	Coinbase ember.Address

	// ExtraData is put into every block header, at most 32 bytes.
	ExtraData []byte

	// LegacyInstamine makes QueueTransaction return only after the tx has
	// been mined. Requires BlockTime == 0.
	LegacyInstamine bool

	// VMErrorsOnRPCResponse surfaces vm errors on the submitting caller
	// instead of only encoding them in receipts.
	VMErrorsOnRPCResponse bool

	// AllowUnlimitedContractSize lifts the code size cap, passed through to
	// the call engine.
	AllowUnlimitedContractSize bool

	// Time is the initial chain time as unix seconds. Zero means now.
	Time uint64

	// Hardfork selects the EVM rule set, passed through to the call engine.
	Hardfork ember.Hardfork

	// PoolLimit caps the total count of pooled txs.
	PoolLimit int

	// PoolLimitPerAccount caps pooled txs per origin.
	PoolLimitPerAccount int

	// SnapshotLimit caps live snapshots. Zero means unbounded retention.
	SnapshotLimit int
}

// DefaultOptions returns the options of a stock development chain.
func DefaultOptions() Options {
	return Options{
		BlockTime:                  0,
		GasPrice:                   new(big.Int).Set(ember.DefaultGasPrice),
		BlockGasLimit:              ember.InitialGasLimit,
		DefaultTransactionGasLimit: ember.DefaultTransactionGasLimit,
		CallGasLimit:               ember.CallGasLimit,
		Hardfork:                   ember.HardforkMuirGlacier,
		PoolLimit:                  10000,
		PoolLimitPerAccount:        1000,
	}
}

// Validate checks the options, filling zero money fields with defaults.
func (o *Options) Validate() error {
	if o.GasPrice == nil {
		o.GasPrice = new(big.Int).Set(ember.DefaultGasPrice)
	}
	if o.GasPrice.Sign() < 0 {
		return errors.New("options: gas price must not be negative")
	}
	if o.BlockGasLimit == 0 {
		o.BlockGasLimit = ember.InitialGasLimit
	}
	if o.BlockGasLimit < ember.MinGasLimit {
		return errors.New("options: block gas limit too low")
	}
	if o.DefaultTransactionGasLimit == 0 {
		o.DefaultTransactionGasLimit = ember.DefaultTransactionGasLimit
	}
	if o.CallGasLimit == 0 {
		o.CallGasLimit = ember.CallGasLimit
	}
	if len(o.ExtraData) > ember.MaxExtraDataLength {
		return errors.Errorf("options: extra data exceeds %v bytes", ember.MaxExtraDataLength)
	}
	if o.LegacyInstamine && o.BlockTime != 0 {
		return errors.New("options: legacy instamine requires block time of 0")
	}
	if o.Hardfork == "" {
		o.Hardfork = ember.HardforkMuirGlacier
	}
	if !ember.KnownHardfork(o.Hardfork) {
		return errors.Errorf("options: unknown hardfork %q", o.Hardfork)
	}
	if o.PoolLimit == 0 {
		o.PoolLimit = 10000
	}
	if o.PoolLimitPerAccount == 0 {
		o.PoolLimitPerAccount = 1000
	}
	if o.SnapshotLimit < 0 {
		return errors.New("options: snapshot limit must not be negative")
	}
	return nil
}
