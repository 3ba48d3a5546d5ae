// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"time"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/tx"
)

// txObject wraps a pooled tx with bookkeeping data.
type txObject struct {
	*tx.Transaction

	origin     ember.Address
	timeAdded  int64
	executable bool
}

// resolveTx recovers the origin of the tx and wraps it into a txObject.
func resolveTx(newTx *tx.Transaction) (*txObject, error) {
	origin, err := newTx.Origin()
	if err != nil {
		return nil, err
	}
	return &txObject{
		Transaction: newTx,
		origin:      origin,
		timeAdded:   time.Now().UnixNano(),
	}, nil
}

// Origin returns the recovered tx sender.
func (o *txObject) Origin() ember.Address {
	return o.origin
}

// Executable returns whether the tx is currently executable.
func (o *txObject) Executable() bool {
	return o.executable
}
