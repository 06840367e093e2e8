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

// Package keystore manages the ed25519 signing keys that identify ledger
// participants. Keys are stored in JSON text-envelope files whose payload is
// CBOR-encoded key material.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/blinklabs-io/attest/address"
)

// Common errors returned by key operations.
var (
	ErrInsecureFileMode = errors.New("insecure file permissions")
	ErrUnknownKeyType   = errors.New("unknown key type")
	ErrNoKey            = errors.New("no signing key configured")
)

// Key is a loaded signing key together with the ledger Identity it controls
type Key struct {
	private  ed25519.PrivateKey
	identity address.Identity
}

func newKey(priv ed25519.PrivateKey) (*Key, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("unexpected public key type")
	}
	id, err := address.IdentityFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &Key{private: priv, identity: id}, nil
}

// Generate creates a new random signing key
func Generate() (*Key, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newKey(priv)
}

// LoadKey reads a signing key file
func LoadKey(path string) (*Key, error) {
	if path == "" {
		return nil, ErrNoKey
	}
	return loadKeyFromFile(path)
}

// Identity returns the ledger identity controlled by this key
func (k *Key) Identity() address.Identity {
	return k.identity
}

// Sign signs msg with the key
func (k *Key) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}

// Verify checks a signature made by the holder of id
func Verify(id address.Identity, msg, sig []byte) bool {
	return ed25519.Verify(id.PublicKey(), msg, sig)
}

// SaveSigningKey writes the signing key to a new file readable only by its
// owner
func (k *Key) SaveSigningKey(path string) error {
	data, err := encodeEnvelope(
		SigningKeyType,
		signingKeyDescription,
		k.private.Seed(),
	)
	if err != nil {
		return err
	}
	return writeKeyFile(path, data, 0o600)
}

// SaveVerificationKey writes the public half of the key to a new file
func (k *Key) SaveVerificationKey(path string) error {
	data, err := encodeEnvelope(
		VerificationKeyType,
		verificationKeyDescription,
		k.identity.Bytes(),
	)
	if err != nil {
		return err
	}
	return writeKeyFile(path, data, 0o644)
}
