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
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
)

func (p *CreateParams) validate() error {
	if p.ContentHash.IsZero() {
		return ErrEmptyContentHash
	}
	if p.AiProbability > MaxAiProbability {
		return ErrInvalidProbability
	}
	if len(p.ContentType) > MaxContentTypeLen {
		return ErrContentTypeTooLong
	}
	if len(p.DetectionModel) > MaxDetectionModelLen {
		return ErrModelNameTooLong
	}
	if len(p.MetadataURI) > MaxMetadataURILen {
		return ErrUriTooLong
	}
	return nil
}

func indexRow(att *Attestation) *models.Attestation {
	return &models.Attestation{
		ContentHash:    att.ContentHash.Bytes(),
		Creator:        att.Creator.Bytes(),
		ContentType:    att.ContentType,
		DetectionModel: att.DetectionModel,
		CreatedAt:      att.CreatedAt,
		VerifiedAt:     att.Verification.At,
		AiProbability:  att.AiProbability,
		Verified:       att.Verification.Verified,
		Certified:      att.Certificate.Linked,
		Compressed:     att.Compression.Compressed,
	}
}

func hashAttr(contentHash ContentHash) attribute.KeyValue {
	return attribute.String("content_hash", contentHash.String())
}

// CreateAttestation records a new attestation owned by creator
func (l *Ledger) CreateAttestation(
	ctx context.Context,
	creator address.Identity,
	params CreateParams,
) (_ *Attestation, err error) {
	_, done := l.startOp(ctx, "create", hashAttr(params.ContentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	pc, err := l.loadConfig()
	if err != nil {
		return nil, err
	}
	if pc.IsPaused {
		return nil, ErrProgramPaused
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if creator.IsZero() {
		return nil, ErrInvalidIdentity
	}
	att := &Attestation{
		ContentHash:    params.ContentHash,
		ContentType:    params.ContentType,
		DetectionModel: params.DetectionModel,
		MetadataURI:    params.MetadataURI,
		Creator:        creator,
		CreatedAt:      l.now(),
		AiProbability:  params.AiProbability,
		Version:        RecordVersion,
	}
	data, err := types.Encode(att)
	if err != nil {
		return nil, fmt.Errorf("encode attestation: %w", err)
	}
	err = l.write(func(txn *database.Txn) error {
		err := l.db.InsertRecord(
			AttestationLocation(att.ContentHash),
			data,
			txn,
		)
		if err != nil {
			if errors.Is(err, database.ErrLocationOccupied) {
				return ErrAttestationExists
			}
			return fmt.Errorf("write attestation: %w", err)
		}
		total, err := checkedIncrement(pc.TotalAttestations)
		if err != nil {
			return err
		}
		pc.TotalAttestations = total
		if err := l.db.SetAttestationIndex(indexRow(att), txn); err != nil {
			return fmt.Errorf("write attestation index: %w", err)
		}
		return l.putConfig(pc, txn)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info(
		"attestation created",
		"content_hash", att.ContentHash.String(),
		"creator", creator.String(),
		"ai_probability", att.AiProbability,
	)
	l.publish(EventTypeAttestationCreated, AttestationCreatedEvent{
		ContentHash:    att.ContentHash,
		ContentType:    att.ContentType,
		DetectionModel: att.DetectionModel,
		MetadataURI:    att.MetadataURI,
		Creator:        creator,
		Timestamp:      att.CreatedAt,
		AiProbability:  att.AiProbability,
	})
	return att, nil
}

// UpdateMetadata replaces the metadata URI of an attestation. Only the
// creator may call it
func (l *Ledger) UpdateMetadata(
	ctx context.Context,
	caller address.Identity,
	contentHash ContentHash,
	newURI string,
) (err error) {
	_, done := l.startOp(ctx, "update_metadata", hashAttr(contentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	att, err := l.loadOwned(caller, contentHash)
	if err != nil {
		return err
	}
	if len(newURI) > MaxMetadataURILen {
		return ErrUriTooLong
	}
	oldURI := att.MetadataURI
	att.MetadataURI = newURI
	if err := l.write(func(txn *database.Txn) error {
		return l.putAttestation(att, txn)
	}); err != nil {
		return err
	}
	l.logger.Info(
		"attestation metadata updated",
		"content_hash", contentHash.String(),
	)
	l.publish(EventTypeMetadataUpdated, MetadataUpdatedEvent{
		ContentHash: contentHash,
		OldURI:      oldURI,
		NewURI:      newURI,
		Timestamp:   l.now(),
	})
	return nil
}

// LinkCertificate binds an externally minted certificate to an
// attestation. Only the creator may call it, and only once
func (l *Ledger) LinkCertificate(
	ctx context.Context,
	caller address.Identity,
	contentHash ContentHash,
	assetID address.Location,
) (err error) {
	_, done := l.startOp(ctx, "link_certificate", hashAttr(contentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	att, err := l.loadOwned(caller, contentHash)
	if err != nil {
		return err
	}
	if assetID.IsZero() {
		return ErrInvalidAssetID
	}
	if att.Certificate.Linked {
		return ErrCertificateAlreadyLinked
	}
	att.Certificate = CertificateLink{Linked: true, AssetID: assetID}
	if err := l.write(func(txn *database.Txn) error {
		return l.putAttestation(att, txn)
	}); err != nil {
		return err
	}
	l.logger.Info(
		"certificate linked",
		"content_hash", contentHash.String(),
		"asset_id", assetID.String(),
	)
	l.publish(EventTypeCertificateLinked, CertificateLinkedEvent{
		ContentHash: contentHash,
		AssetID:     assetID,
		Creator:     caller,
		Timestamp:   l.now(),
	})
	return nil
}

// VerifyAttestation marks an attestation verified by the admin
func (l *Ledger) VerifyAttestation(
	ctx context.Context,
	caller address.Identity,
	contentHash ContentHash,
) (err error) {
	_, done := l.startOp(ctx, "verify", hashAttr(contentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	att, err := l.loadAttestation(contentHash)
	if err != nil {
		return err
	}
	if _, err := l.loadAdminConfig(caller); err != nil {
		return err
	}
	if att.Verification.Verified {
		return ErrAlreadyVerified
	}
	now := l.now()
	att.Verification = Verification{Verified: true, By: caller, At: now}
	if err := l.write(func(txn *database.Txn) error {
		return l.putAttestation(att, txn)
	}); err != nil {
		return err
	}
	l.logger.Info(
		"attestation verified",
		"content_hash", contentHash.String(),
		"verified_by", caller.String(),
	)
	l.publish(EventTypeAttestationVerified, AttestationVerifiedEvent{
		ContentHash: contentHash,
		VerifiedBy:  caller,
		Timestamp:   now,
	})
	return nil
}

// CloseAttestation deletes an attestation and frees its location. Only the
// creator may call it. A linked certificate and a compressed projection
// are left in place
func (l *Ledger) CloseAttestation(
	ctx context.Context,
	caller address.Identity,
	contentHash ContentHash,
) (err error) {
	_, done := l.startOp(ctx, "close", hashAttr(contentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	att, err := l.loadOwned(caller, contentHash)
	if err != nil {
		return err
	}
	if err := l.write(func(txn *database.Txn) error {
		if err := l.db.DeleteRecord(
			AttestationLocation(contentHash),
			txn,
		); err != nil {
			return fmt.Errorf("delete attestation: %w", err)
		}
		if err := l.db.DeleteAttestationIndex(
			contentHash.Bytes(),
			txn,
		); err != nil {
			return fmt.Errorf("delete attestation index: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}
	l.logger.Info(
		"attestation closed",
		"content_hash", contentHash.String(),
	)
	l.publish(EventTypeAttestationClosed, AttestationClosedEvent{
		ContentHash: contentHash,
		Creator:     caller,
		Certificate: att.Certificate,
		Compression: att.Compression,
		Timestamp:   l.now(),
	})
	return nil
}

// Attestation returns the attestation for contentHash
func (l *Ledger) Attestation(
	ctx context.Context,
	contentHash ContentHash,
) (*Attestation, error) {
	_, span := l.tracer.Start(ctx, "ledger.attestation")
	defer span.End()
	return l.loadAttestation(contentHash)
}

// AttestationRaw returns the stored encoding of the attestation for
// contentHash
func (l *Ledger) AttestationRaw(
	ctx context.Context,
	contentHash ContentHash,
) ([]byte, error) {
	_, span := l.tracer.Start(ctx, "ledger.attestation_raw")
	defer span.End()
	return l.loadAttestationRaw(contentHash)
}

func (f ListFilter) model() models.AttestationFilter {
	ret := models.AttestationFilter{
		Verified:   f.Verified,
		Limit:      f.Limit,
		Offset:     f.Offset,
		Descending: f.Descending,
	}
	if !f.Creator.IsZero() {
		ret.Creator = f.Creator.Bytes()
	}
	return ret
}

// ListAttestations returns the attestations matching filter, ordered by
// creation time
func (l *Ledger) ListAttestations(
	ctx context.Context,
	filter ListFilter,
) ([]*Attestation, error) {
	_, span := l.tracer.Start(ctx, "ledger.list_attestations")
	defer span.End()
	rows, err := l.db.AttestationIndexes(filter.model(), nil)
	if err != nil {
		return nil, fmt.Errorf("query attestation index: %w", err)
	}
	txn := l.db.BlobTransaction(false)
	defer txn.Release()
	ret := make([]*Attestation, 0, len(rows))
	for _, row := range rows {
		var contentHash ContentHash
		copy(contentHash[:], row.ContentHash)
		data, err := l.db.Record(AttestationLocation(contentHash), txn)
		if err != nil {
			if errors.Is(err, database.ErrRecordNotFound) {
				// Closed between the index query and the record read
				continue
			}
			return nil, fmt.Errorf("read attestation: %w", err)
		}
		att := &Attestation{}
		if err := types.Decode(data, att); err != nil {
			return nil, fmt.Errorf("decode attestation: %w", err)
		}
		ret = append(ret, att)
	}
	return ret, nil
}

// CountAttestations returns the number of open attestations matching
// filter. Limit and Offset are ignored
func (l *Ledger) CountAttestations(
	ctx context.Context,
	filter ListFilter,
) (int64, error) {
	_, span := l.tracer.Start(ctx, "ledger.count_attestations")
	defer span.End()
	f := filter.model()
	f.Limit = 0
	f.Offset = 0
	count, err := l.db.CountAttestationIndexes(f, nil)
	if err != nil {
		return 0, fmt.Errorf("count attestation index: %w", err)
	}
	return count, nil
}
