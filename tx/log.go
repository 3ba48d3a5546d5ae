// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/emberchain/ember/ember"
)

// Log represents an event log emitted during tx execution.
type Log struct {
	// address of the contract that generated the event
	Address ember.Address
	// list of topics provided by the contract
	Topics []ember.Bytes32
	// supplied by the contract, usually ABI-encoded
	Data []byte
}
