// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import (
	"errors"

	"github.com/emberchain/ember/runtime"
)

var (
	errGasLimitReached = errors.New("gas limit reached")
	errKnownTx         = errors.New("known tx")
	errPaused          = errors.New("packer paused")
)

// IsGasLimitReached returns whether the error means the block ran out of gas,
// so the tx should be deferred to a later block rather than dropped.
func IsGasLimitReached(err error) bool {
	return errors.Is(err, errGasLimitReached)
}

// IsKnownTx returns whether the error means the tx was already confirmed or
// adopted.
func IsKnownTx(err error) bool {
	return errors.Is(err, errKnownTx)
}

// IsPackerPaused returns whether the error means packing is suspended.
func IsPackerPaused(err error) bool {
	return errors.Is(err, errPaused)
}

// IsBadTx returns whether the error means the tx can never be executed, so it
// should be dropped from the pool.
func IsBadTx(err error) bool {
	return runtime.IsBadTx(err)
}
