// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "fmt"

// BadTxError indicates a tx that cannot be executed on the current state at
// all. No gas is consumed; the tx must not be included in a block.
type BadTxError struct {
	msg string
}

func (e BadTxError) Error() string {
	return "bad tx: " + e.msg
}

// OutOfGasError indicates the supplied gas does not cover the intrinsic cost
// of a tx, detected before execution begins.
type OutOfGasError struct {
	Supplied  uint64
	Intrinsic uint64
}

func (e *OutOfGasError) Error() string {
	return fmt.Sprintf("out of gas: gas %v less than intrinsic gas %v", e.Supplied, e.Intrinsic)
}

// IsBadTx returns whether the error marks a non-executable tx.
func IsBadTx(err error) bool {
	if _, ok := err.(BadTxError); ok {
		return true
	}
	_, ok := err.(*OutOfGasError)
	return ok
}
