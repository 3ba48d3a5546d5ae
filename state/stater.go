// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
)

// Stater is the factory of state instances, bound to a kv store.
type Stater struct {
	db kv.GetPutter
}

// NewStater creates the stater object.
func NewStater(db kv.GetPutter) *Stater {
	return &Stater{db}
}

// NewState create a state object bound to the given state root.
func (s *Stater) NewState(root ember.Bytes32) (*State, error) {
	return New(root, s.db)
}
