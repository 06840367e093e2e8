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

package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

const (
	SigningKeyType      = "AttestationSigningKey_ed25519"
	VerificationKeyType = "AttestationVerificationKey_ed25519"

	signingKeyDescription      = "Attestation Signing Key"
	verificationKeyDescription = "Attestation Verification Key"

	// Valid key files are well under this size
	maxKeyFileSize = 1 << 20
)

// keyFileEnvelope is the JSON text envelope used for key files
type keyFileEnvelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

// loadKeyFromFile loads a signing key from path. Files with group or other
// access are refused with ErrInsecureFileMode.
func loadKeyFromFile(path string) (*Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %q: %w", path, err)
	}
	defer f.Close()

	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	key, err := parseKeyEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return key, nil
}

// parseKeyEnvelope decodes a signing key envelope. The payload is a CBOR
// byte string holding either the 32-byte seed or the 64-byte private key.
// The public half is always re-derived from the seed.
func parseKeyEnvelope(fileBytes []byte) (*Key, error) {
	var env keyFileEnvelope
	if err := json.Unmarshal(fileBytes, &env); err != nil {
		return nil, fmt.Errorf("could not parse key file envelope: %w", err)
	}
	if env.Type != SigningKeyType {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyType, env.Type)
	}
	cborData, err := hex.DecodeString(env.CborHex)
	if err != nil {
		return nil, fmt.Errorf("could not decode key from hex: %w", err)
	}
	var keyBytes []byte
	if err := cbor.Unmarshal(cborData, &keyBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signing key CBOR: %w", err)
	}
	switch len(keyBytes) {
	case ed25519.SeedSize:
		return newKey(ed25519.NewKeyFromSeed(keyBytes))
	case ed25519.PrivateKeySize:
		return newKey(
			ed25519.NewKeyFromSeed(keyBytes[:ed25519.SeedSize]),
		)
	default:
		return nil, fmt.Errorf(
			"invalid signing key bytes: expected %d or %d, got %d",
			ed25519.SeedSize,
			ed25519.PrivateKeySize,
			len(keyBytes),
		)
	}
}

func encodeEnvelope(keyType, description string, raw []byte) ([]byte, error) {
	cborData, err := cbor.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(
		keyFileEnvelope{
			Type:        keyType,
			Description: description,
			CborHex:     hex.EncodeToString(cborData),
		},
		"",
		"    ",
	)
}

// writeKeyFile creates path exclusively so an existing key is never
// overwritten
func writeKeyFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create key file %q: %w", path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write key file %q: %w", path, err)
	}
	return f.Close()
}
