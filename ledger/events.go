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
	"fmt"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database/types"
	"github.com/blinklabs-io/attest/event"
)

const (
	EventTypeProgramInitialized    event.EventType = "attestation.program_initialized"
	EventTypeMerkleTreeSetup       event.EventType = "attestation.merkle_tree_setup"
	EventTypeAttestationCreated    event.EventType = "attestation.created"
	EventTypeCertificateLinked     event.EventType = "attestation.certificate_linked"
	EventTypeCertificateMinted     event.EventType = "attestation.certificate_minted"
	EventTypeCnftCertificateMinted event.EventType = "attestation.cnft_certificate_minted"
	EventTypeAttestationVerified   event.EventType = "attestation.verified"
	EventTypeMetadataUpdated       event.EventType = "attestation.metadata_updated"
	EventTypeAttestationCompressed event.EventType = "attestation.compressed"
	EventTypeAttestationClosed     event.EventType = "attestation.closed"
	EventTypeProgramPauseToggled   event.EventType = "attestation.pause_toggled"
	EventTypeAdminTransferred      event.EventType = "attestation.admin_transferred"
)

// EventTypes lists every event type published by the ledger
var EventTypes = []event.EventType{
	EventTypeProgramInitialized,
	EventTypeMerkleTreeSetup,
	EventTypeAttestationCreated,
	EventTypeCertificateLinked,
	EventTypeCertificateMinted,
	EventTypeCnftCertificateMinted,
	EventTypeAttestationVerified,
	EventTypeMetadataUpdated,
	EventTypeAttestationCompressed,
	EventTypeAttestationClosed,
	EventTypeProgramPauseToggled,
	EventTypeAdminTransferred,
}

// AttestationEvent is implemented by events about a single attestation
type AttestationEvent interface {
	AttestationContentHash() ContentHash
}

type ProgramInitializedEvent struct {
	Admin     address.Identity `json:"admin"`
	Timestamp int64            `json:"timestamp"`
}

type MerkleTreeSetupEvent struct {
	Tree      address.Location `json:"tree"`
	Admin     address.Identity `json:"admin"`
	Timestamp int64            `json:"timestamp"`
}

type AttestationCreatedEvent struct {
	ContentHash    ContentHash      `json:"contentHash"`
	ContentType    string           `json:"contentType"`
	DetectionModel string           `json:"detectionModel"`
	MetadataURI    string           `json:"metadataUri"`
	Creator        address.Identity `json:"creator"`
	Timestamp      int64            `json:"timestamp"`
	AiProbability  uint16           `json:"aiProbability"`
}

type CertificateLinkedEvent struct {
	ContentHash ContentHash      `json:"contentHash"`
	AssetID     address.Location `json:"assetId"`
	Creator     address.Identity `json:"creator"`
	Timestamp   int64            `json:"timestamp"`
}

type CertificateMintedEvent struct {
	ContentHash    ContentHash      `json:"contentHash"`
	AssetID        address.Location `json:"assetId"`
	Creator        address.Identity `json:"creator"`
	Classification string           `json:"classification"`
	Name           string           `json:"name"`
	Symbol         string           `json:"symbol"`
	URI            string           `json:"uri"`
	Timestamp      int64            `json:"timestamp"`
}

// CnftCertificateMintedEvent is published when a certificate is minted into
// the registered external tree
type CnftCertificateMintedEvent struct {
	ContentHash    ContentHash      `json:"contentHash"`
	AssetID        address.Location `json:"assetId"`
	Tree           address.Location `json:"tree"`
	Creator        address.Identity `json:"creator"`
	Classification string           `json:"classification"`
	Name           string           `json:"name"`
	Symbol         string           `json:"symbol"`
	URI            string           `json:"uri"`
	Nonce          uint64           `json:"nonce"`
	Timestamp      int64            `json:"timestamp"`
}

type AttestationVerifiedEvent struct {
	ContentHash ContentHash      `json:"contentHash"`
	VerifiedBy  address.Identity `json:"verifiedBy"`
	Timestamp   int64            `json:"timestamp"`
}

type MetadataUpdatedEvent struct {
	ContentHash ContentHash `json:"contentHash"`
	OldURI      string      `json:"oldUri"`
	NewURI      string      `json:"newUri"`
	Timestamp   int64       `json:"timestamp"`
}

type AttestationCompressedEvent struct {
	ContentHash ContentHash      `json:"contentHash"`
	Address     address.Location `json:"address"`
	Timestamp   int64            `json:"timestamp"`
}

// AttestationClosedEvent reports the certificate and compression state the
// record had when it was closed. Neither is revoked by closing
type AttestationClosedEvent struct {
	ContentHash ContentHash      `json:"contentHash"`
	Creator     address.Identity `json:"creator"`
	Certificate CertificateLink  `json:"certificate"`
	Compression Compression      `json:"compression"`
	Timestamp   int64            `json:"timestamp"`
}

type ProgramPauseToggledEvent struct {
	Paused    bool             `json:"paused"`
	Admin     address.Identity `json:"admin"`
	Timestamp int64            `json:"timestamp"`
}

type AdminTransferredEvent struct {
	OldAdmin  address.Identity `json:"oldAdmin"`
	NewAdmin  address.Identity `json:"newAdmin"`
	Timestamp int64            `json:"timestamp"`
}

func (e AttestationCreatedEvent) AttestationContentHash() ContentHash    { return e.ContentHash }
func (e CertificateLinkedEvent) AttestationContentHash() ContentHash     { return e.ContentHash }
func (e CertificateMintedEvent) AttestationContentHash() ContentHash     { return e.ContentHash }
func (e CnftCertificateMintedEvent) AttestationContentHash() ContentHash { return e.ContentHash }
func (e AttestationVerifiedEvent) AttestationContentHash() ContentHash   { return e.ContentHash }
func (e MetadataUpdatedEvent) AttestationContentHash() ContentHash       { return e.ContentHash }
func (e AttestationCompressedEvent) AttestationContentHash() ContentHash { return e.ContentHash }
func (e AttestationClosedEvent) AttestationContentHash() ContentHash     { return e.ContentHash }

// DecodeEvent decodes a stored event payload of the given type
func DecodeEvent(eventType event.EventType, payload []byte) (any, error) {
	var ret any
	switch eventType {
	case EventTypeProgramInitialized:
		ret = &ProgramInitializedEvent{}
	case EventTypeMerkleTreeSetup:
		ret = &MerkleTreeSetupEvent{}
	case EventTypeAttestationCreated:
		ret = &AttestationCreatedEvent{}
	case EventTypeCertificateLinked:
		ret = &CertificateLinkedEvent{}
	case EventTypeCertificateMinted:
		ret = &CertificateMintedEvent{}
	case EventTypeCnftCertificateMinted:
		ret = &CnftCertificateMintedEvent{}
	case EventTypeAttestationVerified:
		ret = &AttestationVerifiedEvent{}
	case EventTypeMetadataUpdated:
		ret = &MetadataUpdatedEvent{}
	case EventTypeAttestationCompressed:
		ret = &AttestationCompressedEvent{}
	case EventTypeAttestationClosed:
		ret = &AttestationClosedEvent{}
	case EventTypeProgramPauseToggled:
		ret = &ProgramPauseToggledEvent{}
	case EventTypeAdminTransferred:
		ret = &AdminTransferredEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	if err := types.Decode(payload, ret); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", eventType, err)
	}
	return ret, nil
}
