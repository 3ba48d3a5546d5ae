// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/state"
)

// DevAccount is a pre-funded development account with a well-known key.
type DevAccount struct {
	Address    ember.Address
	PrivateKey *ecdsa.PrivateKey
}

var (
	devAccounts     []DevAccount
	devAccountsOnce sync.Once
)

// DevAccounts returns the fixed set of development accounts.
// The keys are publicly known, never fund them on a real network.
func DevAccounts() []DevAccount {
	devAccountsOnce.Do(func() {
		privKeys := []string{
			"99f0500549792796c14fed62011a51081dc5b5e68fe8bd8a13b86be829c4fd36",
			"7b067f53d350f1cf20ec13df416b7b73e88a1dc7331bc904b92108b1e76a08b1",
			"f4a1a17039216f535d42ec23732c79943ffb45a089fbb7a16dca32ec20e0c815",
			"35b5cc144faca7d7f220fca7ad3420090861d5231d80eb23e1013426847371c1",
			"10c851d8d6c6ed9e6f625742063f292f4cf57c2dbeea8099fa3aca6b03f3e44f",
			"2dd2c5b5d65913214783a6bd5679d8c6ef29ca9f2e2eae98b4add061d0b85ea0",
			"e1b72a1761ae189c10ec3783dd124b902ffd8c6b93cd9ff443d5490ce70047ff",
			"35cbc5ac0c3a2de0dc4d579cfd4004a7cf3b79147b2ea3f8c9941e300e78d61c",
			"b639c258292096306d2f60bc1a8da9bc434ad37f15cd44ee9a2526685f592220",
			"9d68178cdc934178cca0a0051f40ed46be153cf23cb1805b59cc612c0ad2bbe0",
		}
		for _, str := range privKeys {
			pk, err := crypto.HexToECDSA(str)
			if err != nil {
				panic(err)
			}
			addr := crypto.PubkeyToAddress(pk.PublicKey)
			devAccounts = append(devAccounts, DevAccount{ember.Address(addr), pk})
		}
	})
	return devAccounts
}

// NewDevnet creates the genesis builder of a development chain, allocating
// the given balance to every development account.
func NewDevnet(launchTime uint64, gasLimit uint64, balance *big.Int) *Builder {
	return new(Builder).
		Timestamp(launchTime).
		GasLimit(gasLimit).
		ExtraData([]byte("dev")).
		State(func(st *state.State) error {
			for _, a := range DevAccounts() {
				if err := st.SetBalance(a.Address, new(big.Int).Set(balance)); err != nil {
					return err
				}
			}
			return nil
		})
}
