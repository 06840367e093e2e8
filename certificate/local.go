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

package certificate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
)

var (
	ErrDuplicateAsset = errors.New("certificate asset already minted")
	ErrInvalidRequest = errors.New("invalid mint request")
)

// LocalIssuer mints certificates by recording them in the metadata store
type LocalIssuer struct {
	db     *database.Database
	logger *slog.Logger
}

func NewLocalIssuer(db *database.Database, logger *slog.Logger) *LocalIssuer {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &LocalIssuer{
		db:     db,
		logger: logger.With("component", "certificate"),
	}
}

// Mint stores the certificate and returns its asset id. A nil txn commits
// the certificate on its own
func (i *LocalIssuer) Mint(
	ctx context.Context,
	req MintRequest,
	txn *database.Txn,
) (address.Location, error) {
	if err := ctx.Err(); err != nil {
		return address.Location{}, err
	}
	if req.AssetID.IsZero() {
		return address.Location{}, fmt.Errorf("%w: empty asset id", ErrInvalidRequest)
	}
	if req.LeafOwner.IsZero() {
		return address.Location{}, fmt.Errorf("%w: empty leaf owner", ErrInvalidRequest)
	}
	reqCbor, err := types.Encode(req)
	if err != nil {
		return address.Location{}, fmt.Errorf("encode mint request: %w", err)
	}
	cert := &models.Certificate{
		AssetID:        req.AssetID.Bytes(),
		ContentHash:    req.ContentHash[:],
		Owner:          req.LeafOwner.Bytes(),
		Name:           req.Metadata.Name,
		Symbol:         req.Metadata.Symbol,
		URI:            req.Metadata.URI,
		Classification: classificationOf(req.Metadata),
		Request:        reqCbor,
		Nonce:          req.Nonce,
		MintedAt:       time.Now().Unix(),
	}
	if req.Batched() {
		cert.Tree = req.Tree.Bytes()
	}
	if err := i.db.AddCertificate(cert, txn); err != nil {
		if errors.Is(err, types.ErrRecordExists) {
			return address.Location{}, fmt.Errorf(
				"%w: %s",
				ErrDuplicateAsset,
				req.AssetID,
			)
		}
		return address.Location{}, fmt.Errorf("store certificate: %w", err)
	}
	i.logger.Debug(
		"minted certificate",
		"asset_id", req.AssetID.String(),
		"batched", req.Batched(),
	)
	return req.AssetID, nil
}

// Certificate returns a previously minted certificate, or nil if there is
// none
func (i *LocalIssuer) Certificate(
	assetID address.Location,
) (*models.Certificate, error) {
	return i.db.Certificate(assetID.Bytes(), nil)
}

// DecodeRequest returns the mint request stored with a certificate
func DecodeRequest(cert *models.Certificate) (MintRequest, error) {
	var req MintRequest
	if err := types.Decode(cert.Request, &req); err != nil {
		return req, fmt.Errorf("decode mint request: %w", err)
	}
	return req, nil
}

func classificationOf(meta Metadata) string {
	for _, attr := range meta.Attributes {
		if attr.TraitType == TraitClassification {
			return attr.Value
		}
	}
	return ""
}
