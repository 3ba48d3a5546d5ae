// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// BloomLength length of the log bloom filter in bytes.
const BloomLength = 256

// Bloom is the 2048-bit log bloom filter, per the Ethereum yellow paper.
type Bloom [BloomLength]byte

// Add sets the three bloom bits derived from the given data.
func (b *Bloom) Add(data []byte) {
	h := crypto.Keccak256(data)
	for i := 0; i < 6; i += 2 {
		bit := (uint(h[i+1]) + (uint(h[i]) << 8)) & 2047
		b[BloomLength-1-bit/8] |= byte(1 << (bit % 8))
	}
}

// Test returns whether the bloom possibly contains the given data.
func (b *Bloom) Test(data []byte) bool {
	h := crypto.Keccak256(data)
	for i := 0; i < 6; i += 2 {
		bit := (uint(h[i+1]) + (uint(h[i]) << 8)) & 2047
		if b[BloomLength-1-bit/8]&byte(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// LogsBloom computes the bloom filter covering the given logs.
func LogsBloom(logs []*Log) (bloom Bloom) {
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, topic := range l.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return
}
