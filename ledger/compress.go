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
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/compression"
	"github.com/blinklabs-io/attest/database"
)

// ContentTypeHash returns the 8-byte digest that replaces the content type
// in a compressed projection
func ContentTypeHash(contentType string) [8]byte {
	var ret [8]byte
	binary.BigEndian.PutUint64(ret[:], xxhash.Sum64String(contentType))
	return ret
}

func projection(att *Attestation) compression.Projection {
	return compression.Projection{
		ContentHash:     att.ContentHash,
		Creator:         att.Creator,
		Certificate:     att.Certificate.AssetID,
		ContentTypeHash: ContentTypeHash(att.ContentType),
		CreatedAt:       att.CreatedAt,
		AiProbability:   att.AiProbability,
		Verified:        att.Verification.Verified,
		Certified:       att.Certificate.Linked,
	}
}

// CompressAttestation stores a compact projection of an attestation and
// marks the record compressed. Only the creator may call it
func (l *Ledger) CompressAttestation(
	ctx context.Context,
	caller address.Identity,
	contentHash ContentHash,
) (_ address.Location, err error) {
	ctx, done := l.startOp(ctx, "compress", hashAttr(contentHash))
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	att, err := l.loadOwned(caller, contentHash)
	if err != nil {
		return address.Location{}, err
	}
	if att.Compression.Compressed {
		return address.Location{}, ErrAlreadyCompressed
	}
	target := CompressedLocation(contentHash)
	loc, err := l.compressor.Compress(ctx, compression.CompressRequest{
		ContentHash: contentHash,
		Target:      target,
		Projection:  projection(att),
	})
	if err != nil {
		return address.Location{}, fmt.Errorf("compress attestation: %w", err)
	}
	att.Compression = Compression{Compressed: true, Address: loc}
	if err := l.write(func(txn *database.Txn) error {
		return l.putAttestation(att, txn)
	}); err != nil {
		return address.Location{}, err
	}
	l.logger.Info(
		"attestation compressed",
		"content_hash", contentHash.String(),
		"address", loc.String(),
	)
	l.publish(EventTypeAttestationCompressed, AttestationCompressedEvent{
		ContentHash: contentHash,
		Address:     loc,
		Timestamp:   l.now(),
	})
	return loc, nil
}
