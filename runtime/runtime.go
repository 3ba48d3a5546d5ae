// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes transactions against a state, delegating message
// calls to a pluggable engine.
package runtime

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/state"
	"github.com/emberchain/ember/tx"
)

// BlockContext the block environment transactions execute in.
type BlockContext struct {
	Coinbase     ember.Address
	Number       uint32
	Timestamp    uint64
	GasLimit     uint64
	GetBlockHash func(num uint32) ember.Bytes32
}

// TransactionExecution the result of executing a transaction.
type TransactionExecution struct {
	Receipt *tx.Receipt
	Output  []byte
	// VMErr is set when the execution reverted or threw. The tx is still
	// included in the block with a failed receipt, having consumed gas.
	VMErr error
}

// Runtime executes transactions on top of a state.
type Runtime struct {
	state  *state.State
	ctx    *BlockContext
	engine CallEngine
}

// New create a runtime bound to the given state and block context.
// If engine is nil, the NullEngine is used.
func New(st *state.State, ctx *BlockContext, engine CallEngine) *Runtime {
	if engine == nil {
		engine = &NullEngine{}
	}
	return &Runtime{
		state:  st,
		ctx:    ctx,
		engine: engine,
	}
}

// State returns the bound state.
func (rt *Runtime) State() *state.State {
	return rt.state
}

// Context returns the block context.
func (rt *Runtime) Context() *BlockContext {
	return rt.ctx
}

// ExecuteTransaction executes the given transaction.
//
// A returned error means the tx cannot be executed at all and nothing was
// charged; the caller should revert its checkpoint and drop the tx. A failed
// execution is not an error here: it is reported via TransactionExecution.VMErr
// and the failed receipt.
func (rt *Runtime) ExecuteTransaction(t *tx.Transaction) (*TransactionExecution, error) {
	origin, err := t.Origin()
	if err != nil {
		return nil, BadTxError{"invalid signature: " + err.Error()}
	}

	nonce, err := rt.state.GetNonce(origin)
	if err != nil {
		return nil, err
	}
	if t.Nonce() < nonce {
		return nil, BadTxError{"nonce too low"}
	}
	if t.Nonce() > nonce {
		return nil, BadTxError{"nonce too high"}
	}

	balance, err := rt.state.GetBalance(origin)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(t.Cost()) < 0 {
		return nil, BadTxError{"insufficient balance"}
	}

	intrinsic, err := t.IntrinsicGas()
	if err != nil {
		return nil, BadTxError{err.Error()}
	}
	if t.Gas() < intrinsic {
		return nil, &OutOfGasError{Supplied: t.Gas(), Intrinsic: intrinsic}
	}

	gasPrice := t.GasPrice()

	// buy gas and bump the nonce; these survive a reverted execution
	prepaid := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(t.Gas()))
	if err := rt.state.SetBalance(origin, new(big.Int).Sub(balance, prepaid)); err != nil {
		return nil, err
	}
	if err := rt.state.SetNonce(origin, nonce+1); err != nil {
		return nil, err
	}

	// execution effects are scoped, so a vm error rolls them back
	checkpoint := rt.state.NewCheckpoint()
	out := rt.call(origin, t.To(), t.Value(), t.Data(), t.Gas()-intrinsic)
	if out.VMErr != nil {
		rt.state.RevertTo(checkpoint)
	}

	gasUsed := intrinsic + out.GasUsed
	if gasUsed > t.Gas() {
		gasUsed = t.Gas()
	}

	// refund the leftover and pay the fee to the coinbase;
	// the block reward itself is zero
	refund := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(t.Gas()-gasUsed))
	originBalance, err := rt.state.GetBalance(origin)
	if err != nil {
		return nil, err
	}
	if err := rt.state.SetBalance(origin, new(big.Int).Add(originBalance, refund)); err != nil {
		return nil, err
	}
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasUsed))
	coinbaseBalance, err := rt.state.GetBalance(rt.ctx.Coinbase)
	if err != nil {
		return nil, err
	}
	if err := rt.state.SetBalance(rt.ctx.Coinbase, new(big.Int).Add(coinbaseBalance, fee)); err != nil {
		return nil, err
	}

	receipt := &tx.Receipt{
		Status:  tx.ReceiptStatusSuccessful,
		GasUsed: gasUsed,
	}
	if out.VMErr != nil {
		receipt.Status = tx.ReceiptStatusFailed
	} else {
		receipt.Logs = out.Logs
		receipt.Bloom = tx.LogsBloom(out.Logs)
		receipt.ContractAddress = out.ContractAddress
	}

	return &TransactionExecution{
		Receipt: receipt,
		Output:  out.Data,
		VMErr:   out.VMErr,
	}, nil
}

// Call runs a read-only message call against the bound state. The state is
// always reverted afterwards, so simulation never leaks effects.
func (rt *Runtime) Call(caller ember.Address, to *ember.Address, value *big.Int, data []byte, gas uint64) (*TransactionExecution, error) {
	if value == nil {
		value = new(big.Int)
	}
	callTx := new(tx.Builder).
		To(to).
		Value(value).
		Data(data).
		Gas(gas).
		Build()
	intrinsic, err := callTx.IntrinsicGas()
	if err != nil {
		return nil, BadTxError{err.Error()}
	}
	if gas < intrinsic {
		return nil, &OutOfGasError{Supplied: gas, Intrinsic: intrinsic}
	}

	checkpoint := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(checkpoint)

	out := rt.call(caller, to, value, data, gas-intrinsic)
	return &TransactionExecution{
		Output: out.Data,
		VMErr:  out.VMErr,
	}, nil
}

// call transfers value then hands over to the engine.
func (rt *Runtime) call(caller ember.Address, to *ember.Address, value *big.Int, data []byte, gas uint64) *Output {
	if to != nil && value != nil && value.Sign() > 0 {
		if err := rt.transfer(caller, *to, value); err != nil {
			return &Output{VMErr: err}
		}
	}

	out := rt.engine.RunCall(rt.state, rt.ctx, &CallParams{
		Caller: caller,
		To:     to,
		Value:  value,
		Data:   data,
		Gas:    gas,
	})

	if out.VMErr == nil && to == nil && value != nil && value.Sign() > 0 {
		if out.ContractAddress == nil {
			return &Output{VMErr: errors.New("engine returned no contract address")}
		}
		if err := rt.transfer(caller, *out.ContractAddress, value); err != nil {
			return &Output{VMErr: err}
		}
	}
	return out
}

func (rt *Runtime) transfer(from, to ember.Address, amount *big.Int) error {
	fromBalance, err := rt.state.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return errors.New("insufficient balance for transfer")
	}
	if from == to {
		return nil
	}
	toBalance, err := rt.state.GetBalance(to)
	if err != nil {
		return err
	}
	if err := rt.state.SetBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return rt.state.SetBalance(to, new(big.Int).Add(toBalance, amount))
}
