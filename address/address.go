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

// Package address implements the deterministic addressing scheme used to
// place ledger records. Every record lives at a Location derived from a
// namespace and the record's key material, so a given logical key always
// maps to exactly one storage slot.
package address

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/zeebo/blake3"
)

// Size is the length in bytes of a Location or Identity
const Size = 32

// Namespace separates the derivation domains of different record kinds
type Namespace string

const (
	NamespaceConfig      Namespace = "config"
	NamespaceAttestation Namespace = "attestation"
	NamespaceCertificate Namespace = "certificate"
	NamespaceAsset       Namespace = "asset"
	NamespaceCompressed  Namespace = "compressed"
)

// derivationContext is the BLAKE3 derive-key context prefix. Changing it
// moves every record in an existing database.
const derivationContext = "blinklabs-io/attest 2026 address "

var (
	ErrInvalidLength   = errors.New("invalid address length")
	ErrInvalidEncoding = errors.New("invalid address encoding")
)

// Location is a storage slot in the ledger's content-addressed store
type Location [Size]byte

// Derive maps a namespace and key material to a Location. Each part is
// length-prefixed, so splitting the same bytes differently across parts
// yields a different Location.
func Derive(ns Namespace, parts ...[]byte) Location {
	h := blake3.NewDeriveKey(derivationContext + string(ns))
	var lenBuf [4]byte
	for _, part := range parts {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(part))) //nolint:gosec
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(part)
	}
	var loc Location
	copy(loc[:], h.Sum(nil))
	return loc
}

// Nonce encodes a sequence number as key material for Derive
func Nonce(n uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, n)
	return ret
}

func (l Location) Bytes() []byte {
	return l[:]
}

func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	return base58.Encode(l[:])
}

func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Location) UnmarshalText(text []byte) error {
	tmp, err := decode(string(text))
	if err != nil {
		return err
	}
	*l = tmp
	return nil
}

// ParseLocation decodes a base58 Location
func ParseLocation(s string) (Location, error) {
	return decode(s)
}

// LocationFromBytes copies a raw 32-byte value into a Location
func LocationFromBytes(b []byte) (Location, error) {
	var loc Location
	if len(b) != Size {
		return loc, fmt.Errorf("%w: %d", ErrInvalidLength, len(b))
	}
	copy(loc[:], b)
	return loc, nil
}

func decode(s string) ([32]byte, error) {
	var ret [32]byte
	if s == "" {
		return ret, ErrInvalidEncoding
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return ret, fmt.Errorf("%w: %q", ErrInvalidEncoding, s)
	}
	if len(raw) != Size {
		return ret, fmt.Errorf("%w: %d", ErrInvalidLength, len(raw))
	}
	copy(ret[:], raw)
	return ret, nil
}
