// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/state"
	"github.com/emberchain/ember/tx"
)

// CallParams describes a message call handed to the call engine.
type CallParams struct {
	Caller ember.Address
	To     *ember.Address // nil means contract creation
	Value  *big.Int
	Data   []byte
	Gas    uint64 // gas left for execution, intrinsic cost already charged
}

// Output is the result of a call run by the engine.
type Output struct {
	Data            []byte
	GasUsed         uint64
	Logs            []*tx.Log
	ContractAddress *ember.Address // filled on creation
	VMErr           error          // non-nil when execution reverted or threw
}

// CallEngine executes message calls against a state. It is the boundary to
// the EVM interpreter, which this package treats as a black box.
//
// The engine must apply its effects through the passed state only, so the
// caller controls checkpoint/revert around the run.
type CallEngine interface {
	RunCall(st *state.State, blockCtx *BlockContext, params *CallParams) *Output
}

// NullEngine is a call engine without an interpreter. Value is transferred by
// the runtime before the engine runs, so plain transfers work in full. Data
// calls succeed as no-ops, and creations install the payload as the contract
// code verbatim.
type NullEngine struct{}

// RunCall implements CallEngine.
func (*NullEngine) RunCall(st *state.State, _ *BlockContext, params *CallParams) *Output {
	if params.To == nil {
		nonce, err := st.GetNonce(params.Caller)
		if err != nil {
			return &Output{VMErr: err}
		}
		// the caller nonce was already incremented for this tx
		contractAddr := ember.CreateContractAddress(params.Caller, nonce-1)
		if err := st.SetCode(contractAddr, params.Data); err != nil {
			return &Output{VMErr: err}
		}
		return &Output{ContractAddress: &contractAddr}
	}
	return &Output{}
}
