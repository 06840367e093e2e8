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
	"context"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/certificate"
	"github.com/blinklabs-io/attest/database"
)

func (p *MintParams) validate() error {
	if len(p.Name) > MaxCertNameLen {
		return ErrNameTooLong
	}
	if len(p.Symbol) > MaxCertSymbolLen {
		return ErrSymbolTooLong
	}
	if len(p.URI) > MaxCertURILen {
		return ErrUriTooLong
	}
	return nil
}

// mintRequest builds the issuer request for an attestation
func mintRequest(
	att *Attestation,
	pc *ProgramConfig,
	params MintParams,
) certificate.MintRequest {
	req := certificate.MintRequest{
		ContentHash:  att.ContentHash,
		LeafOwner:    att.Creator,
		LeafDelegate: att.Creator,
		Metadata: certificate.Metadata{
			Name:   params.Name,
			Symbol: params.Symbol,
			URI:    params.URI,
			Creators: []certificate.Creator{
				{Address: att.Creator, Share: 100},
			},
			Attributes: []certificate.Attribute{
				{
					TraitType: certificate.TraitClassification,
					Value:     att.Classification(),
				},
				{
					TraitType: certificate.TraitAiProbability,
					Value:     strconv.FormatUint(uint64(att.AiProbability), 10),
				},
				{
					TraitType: certificate.TraitContentType,
					Value:     att.ContentType,
				},
				{
					TraitType: certificate.TraitDetectionModel,
					Value:     att.DetectionModel,
				},
			},
			TokenStandard: certificate.TokenStandardNonFungible,
		},
	}
	if pc.ExternalTree.Registered {
		tree := pc.ExternalTree.Tree
		req.Tree = tree
		req.Nonce = pc.TotalCertificates
		req.AssetID = address.Derive(
			address.NamespaceAsset,
			tree[:],
			address.Nonce(pc.TotalCertificates),
		)
	} else {
		// The certificate counter keeps the id fresh when a closed content
		// hash is attested and minted again
		req.AssetID = address.Derive(
			address.NamespaceCertificate,
			att.ContentHash[:],
			address.Nonce(pc.TotalCertificates),
		)
	}
	return req
}

// MintCertificate issues a certificate for an attestation and links it.
// Only the creator may call it. When an external tree is registered the
// certificate is minted into it
func (l *Ledger) MintCertificate(
	ctx context.Context,
	caller address.Identity,
	contentHash ContentHash,
	params MintParams,
) (_ address.Location, err error) {
	ctx, done := l.startOp(ctx, "mint_certificate", hashAttr(contentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	att, err := l.loadOwned(caller, contentHash)
	if err != nil {
		return address.Location{}, err
	}
	pc, err := l.loadConfig()
	if err != nil {
		return address.Location{}, err
	}
	if pc.IsPaused {
		return address.Location{}, ErrProgramPaused
	}
	if att.Certificate.Linked {
		return address.Location{}, ErrCertificateAlreadyLinked
	}
	if err := params.validate(); err != nil {
		return address.Location{}, err
	}
	total, err := checkedIncrement(pc.TotalCertificates)
	if err != nil {
		return address.Location{}, err
	}
	req := mintRequest(att, pc, params)
	var assetID address.Location
	if err := l.write(func(txn *database.Txn) error {
		var err error
		assetID, err = l.issuer.Mint(ctx, req, txn)
		if err != nil {
			return fmt.Errorf("mint certificate: %w", err)
		}
		if assetID.IsZero() {
			return fmt.Errorf("mint certificate: %w", ErrInvalidAssetID)
		}
		att.Certificate = CertificateLink{Linked: true, AssetID: assetID}
		pc.TotalCertificates = total
		if err := l.putAttestation(att, txn); err != nil {
			return err
		}
		return l.putConfig(pc, txn)
	}); err != nil {
		return address.Location{}, err
	}
	classification := att.Classification()
	l.logger.Info(
		"certificate minted",
		"content_hash", contentHash.String(),
		"asset_id", assetID.String(),
		"classification", classification,
		"batched", req.Batched(),
	)
	now := l.now()
	if req.Batched() {
		l.publish(EventTypeCnftCertificateMinted, CnftCertificateMintedEvent{
			ContentHash:    contentHash,
			AssetID:        assetID,
			Tree:           req.Tree,
			Creator:        caller,
			Classification: classification,
			Name:           params.Name,
			Symbol:         params.Symbol,
			URI:            params.URI,
			Nonce:          req.Nonce,
			Timestamp:      now,
		})
	} else {
		l.publish(EventTypeCertificateMinted, CertificateMintedEvent{
			ContentHash:    contentHash,
			AssetID:        assetID,
			Creator:        caller,
			Classification: classification,
			Name:           params.Name,
			Symbol:         params.Symbol,
			URI:            params.URI,
			Timestamp:      now,
		})
	}
	return assetID, nil
}
