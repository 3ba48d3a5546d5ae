// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

// badTxError is the error type for a malformed or invalid transaction.
type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

// txRejectedError is the error type for a valid transaction the pool refuses
// to admit.
type txRejectedError struct {
	msg string
}

func (e txRejectedError) Error() string {
	return "tx rejected: " + e.msg
}

// IsBadTx returns whether the error indicates an invalid transaction.
func IsBadTx(err error) bool {
	_, ok := err.(badTxError)
	return ok
}

// IsTxRejected returns whether the error indicates a rejected transaction.
func IsTxRejected(err error) bool {
	_, ok := err.(txRejectedError)
	return ok
}
