// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/ember"
)

// Header contains all information about a block, except the block body.
// It's immutable.
type Header struct {
	body headerBody

	cache struct {
		hash atomic.Value
	}
}

// headerBody body of header
type headerBody struct {
	ParentHash ember.Bytes32
	Number     uint32
	Coinbase   ember.Address
	Timestamp  uint64
	GasLimit   uint64
	GasUsed    uint64

	StateRoot    ember.Bytes32
	TxsRoot      ember.Bytes32
	ReceiptsRoot ember.Bytes32

	ExtraData []byte
}

// ParentHash returns the hash of the parent block.
func (h *Header) ParentHash() ember.Bytes32 {
	return h.body.ParentHash
}

// Number returns the sequential number of this block.
func (h *Header) Number() uint32 {
	return h.body.Number
}

// Coinbase returns the miner reward recipient.
func (h *Header) Coinbase() ember.Address {
	return h.body.Coinbase
}

// Timestamp returns the timestamp of this block.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// GasLimit returns the gas limit of this block.
func (h *Header) GasLimit() uint64 {
	return h.body.GasLimit
}

// GasUsed returns gas used by txs.
func (h *Header) GasUsed() uint64 {
	return h.body.GasUsed
}

// StateRoot returns the account state merkle root just after this block being applied.
func (h *Header) StateRoot() ember.Bytes32 {
	return h.body.StateRoot
}

// TxsRoot returns the merkle root of txs contained in this block.
func (h *Header) TxsRoot() ember.Bytes32 {
	return h.body.TxsRoot
}

// ReceiptsRoot returns the merkle root of tx receipts.
func (h *Header) ReceiptsRoot() ember.Bytes32 {
	return h.body.ReceiptsRoot
}

// ExtraData returns a copy of the extra data.
func (h *Header) ExtraData() []byte {
	return append([]byte(nil), h.body.ExtraData...)
}

// Hash computes the hash of the header, which identifies the block.
func (h *Header) Hash() (hash ember.Bytes32) {
	if cached := h.cache.hash.Load(); cached != nil {
		return cached.(ember.Bytes32)
	}
	defer func() { h.cache.hash.Store(hash) }()

	data, _ := rlp.EncodeToBytes(&h.body)
	return ember.Keccak256(data)
}

// EncodeRLP implements rlp.Encoder
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

func (h *Header) String() string {
	return fmt.Sprintf(`
	Hash:          %v
	Number:        %v
	ParentHash:    %v
	Coinbase:      %v
	Timestamp:     %v
	GasLimit:      %v
	GasUsed:       %v
	StateRoot:     %v
	TxsRoot:       %v
	ReceiptsRoot:  %v
	ExtraData:     0x%x`, h.Hash(), h.body.Number, h.body.ParentHash, h.body.Coinbase,
		h.body.Timestamp, h.body.GasLimit, h.body.GasUsed, h.body.StateRoot,
		h.body.TxsRoot, h.body.ReceiptsRoot, h.body.ExtraData)
}
