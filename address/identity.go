// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package address

import (
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Identity is the ed25519 public key of a ledger participant
type Identity [Size]byte

// IdentityFromPublicKey converts an ed25519 public key into an Identity
func IdentityFromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	var id Identity
	if len(pub) != ed25519.PublicKeySize {
		return id, fmt.Errorf("%w: %d", ErrInvalidLength, len(pub))
	}
	copy(id[:], pub)
	return id, nil
}

// ParseIdentity decodes a base58 Identity
func ParseIdentity(s string) (Identity, error) {
	tmp, err := decode(s)
	if err != nil {
		return Identity{}, err
	}
	return Identity(tmp), nil
}

func (i Identity) Bytes() []byte {
	return i[:]
}

func (i Identity) IsZero() bool {
	return i == Identity{}
}

func (i Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(i[:])
}

func (i Identity) String() string {
	return base58.Encode(i[:])
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	tmp, err := decode(string(text))
	if err != nil {
		return err
	}
	*i = Identity(tmp)
	return nil
}
