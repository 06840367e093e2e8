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

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/attest/address"
)

// Field bounds, in bytes
const (
	MaxAiProbability     = 10000
	MaxContentTypeLen    = 20
	MaxDetectionModelLen = 32
	MaxMetadataURILen    = 200
	MaxCertNameLen       = 32
	MaxCertSymbolLen     = 10
	MaxCertURILen        = 200

	// RecordVersion is the schema version written to new records
	RecordVersion uint8 = 1
)

// Classification thresholds in basis points
const (
	AiGeneratedThreshold  = 7000
	HumanCreatedThreshold = 3000
	ClassAiGenerated      = "AI Generated"
	ClassHumanCreated     = "Human Created"
	ClassMixedUncertain   = "Mixed/Uncertain"
)

// ContentHash is the 32-byte digest identifying attested content
type ContentHash [32]byte

// HashContent returns the SHA-256 content hash of data
func HashContent(data []byte) ContentHash {
	return ContentHash(sha256.Sum256(data))
}

// ParseContentHash decodes a hex content hash
func ParseContentHash(s string) (ContentHash, error) {
	var ret ContentHash
	tmp, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("invalid content hash: %w", err)
	}
	if len(tmp) != len(ret) {
		return ret, fmt.Errorf(
			"invalid content hash: expected %d bytes, got %d",
			len(ret),
			len(tmp),
		)
	}
	copy(ret[:], tmp)
	return ret, nil
}

func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

func (h ContentHash) Bytes() []byte {
	return h[:]
}

func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

func (h ContentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *ContentHash) UnmarshalText(text []byte) error {
	tmp, err := ParseContentHash(string(text))
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}

// ExternalTree is the optional external batching tree used for certificate
// issuance
type ExternalTree struct {
	Registered bool             `json:"registered"`
	Tree       address.Location `json:"tree,omitzero"`
}

// ProgramConfig is the singleton ledger configuration
type ProgramConfig struct {
	Admin             address.Identity `json:"admin"`
	ExternalTree      ExternalTree     `json:"externalTree"`
	TotalAttestations uint64           `json:"totalAttestations"`
	TotalCertificates uint64           `json:"totalCertificates"`
	IsPaused          bool             `json:"isPaused"`
	Version           uint8            `json:"version"`
}

// Verification is Unverified in its zero value, or Verified by an admin at
// a point in time
type Verification struct {
	Verified bool             `json:"verified"`
	By       address.Identity `json:"by,omitzero"`
	At       int64            `json:"at,omitempty"`
}

// CertificateLink is None in its zero value, or Linked to an asset
type CertificateLink struct {
	Linked  bool             `json:"linked"`
	AssetID address.Location `json:"assetId,omitzero"`
}

// Compression is Raw in its zero value, or Compressed at a derived address
type Compression struct {
	Compressed bool             `json:"compressed"`
	Address    address.Location `json:"address,omitzero"`
}

// Attestation is a record asserting an AI-detection outcome for one piece
// of content
type Attestation struct {
	ContentHash    ContentHash      `json:"contentHash"`
	ContentType    string           `json:"contentType"`
	DetectionModel string           `json:"detectionModel"`
	MetadataURI    string           `json:"metadataUri"`
	Creator        address.Identity `json:"creator"`
	Verification   Verification     `json:"verification"`
	Certificate    CertificateLink  `json:"certificate"`
	Compression    Compression      `json:"compression"`
	CreatedAt      int64            `json:"createdAt"`
	AiProbability  uint16           `json:"aiProbability"`
	Version        uint8            `json:"version"`
}

// Classification returns the classification string for the record
func (a *Attestation) Classification() string {
	return Classify(a.AiProbability)
}

// Classify maps an AI probability in basis points to a classification
func Classify(aiProbability uint16) string {
	switch {
	case aiProbability >= AiGeneratedThreshold:
		return ClassAiGenerated
	case aiProbability <= HumanCreatedThreshold:
		return ClassHumanCreated
	default:
		return ClassMixedUncertain
	}
}

// CreateParams are the caller supplied fields of a new attestation
type CreateParams struct {
	ContentHash    ContentHash
	ContentType    string
	DetectionModel string
	MetadataURI    string
	AiProbability  uint16
}

// MintParams describe the certificate to mint for an attestation
type MintParams struct {
	Name   string
	Symbol string
	URI    string
}

// ListFilter selects attestations. Zero values match everything
type ListFilter struct {
	Creator    address.Identity
	Verified   *bool
	Limit      int
	Offset     int
	Descending bool
}
