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

package api

import (
	"github.com/blinklabs-io/attest/ledger"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy   bool `json:"is_healthy"`
	Initialized bool `json:"initialized"`
}

// ConfigResponse is returned by GET /api/v1/config
type ConfigResponse struct {
	Admin             string  `json:"admin"`
	ExternalTree      *string `json:"external_tree"`
	TotalAttestations uint64  `json:"total_attestations"`
	TotalCertificates uint64  `json:"total_certificates"`
	IsPaused          bool    `json:"is_paused"`
	Version           uint8   `json:"version"`
}

func newConfigResponse(pc *ledger.ProgramConfig) ConfigResponse {
	ret := ConfigResponse{
		Admin:             pc.Admin.String(),
		TotalAttestations: pc.TotalAttestations,
		TotalCertificates: pc.TotalCertificates,
		IsPaused:          pc.IsPaused,
		Version:           pc.Version,
	}
	if pc.ExternalTree.Registered {
		tree := pc.ExternalTree.Tree.String()
		ret.ExternalTree = &tree
	}
	return ret
}

// AttestationResponse is a single attestation
type AttestationResponse struct {
	ContentHash        string  `json:"content_hash"`
	AiProbability      uint16  `json:"ai_probability"`
	Classification     string  `json:"classification"`
	ContentType        string  `json:"content_type"`
	DetectionModel     string  `json:"detection_model"`
	MetadataURI        string  `json:"metadata_uri"`
	Creator            string  `json:"creator"`
	CreatedAt          int64   `json:"created_at"`
	Verified           bool    `json:"verified"`
	VerifiedBy         *string `json:"verified_by"`
	VerifiedAt         *int64  `json:"verified_at"`
	CertificateAssetID *string `json:"certificate_asset_id"`
	CompressedAddress  *string `json:"compressed_address"`
	Version            uint8   `json:"version"`
}

func newAttestationResponse(att *ledger.Attestation) AttestationResponse {
	ret := AttestationResponse{
		ContentHash:    att.ContentHash.String(),
		AiProbability:  att.AiProbability,
		Classification: att.Classification(),
		ContentType:    att.ContentType,
		DetectionModel: att.DetectionModel,
		MetadataURI:    att.MetadataURI,
		Creator:        att.Creator.String(),
		CreatedAt:      att.CreatedAt,
		Verified:       att.Verification.Verified,
		Version:        att.Version,
	}
	if att.Verification.Verified {
		by := att.Verification.By.String()
		at := att.Verification.At
		ret.VerifiedBy = &by
		ret.VerifiedAt = &at
	}
	if att.Certificate.Linked {
		asset := att.Certificate.AssetID.String()
		ret.CertificateAssetID = &asset
	}
	if att.Compression.Compressed {
		addr := att.Compression.Address.String()
		ret.CompressedAddress = &addr
	}
	return ret
}
