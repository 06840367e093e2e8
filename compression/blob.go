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

package compression

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/database/types"
)

var ErrNotFound = errors.New("compressed projection not found")

// BlobCompressor stores compressed projections in the blob store
type BlobCompressor struct {
	db     *database.Database
	logger *slog.Logger
	codec  Codec
}

func NewBlobCompressor(
	db *database.Database,
	codec Codec,
	logger *slog.Logger,
) *BlobCompressor {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &BlobCompressor{
		db:     db,
		codec:  codec,
		logger: logger.With("component", "compression"),
	}
}

// Compress encodes and compresses the projection and stores it at the
// target location, replacing any previous projection there
func (c *BlobCompressor) Compress(
	ctx context.Context,
	req CompressRequest,
) (address.Location, error) {
	if err := ctx.Err(); err != nil {
		return address.Location{}, err
	}
	if req.Target.IsZero() {
		return address.Location{}, errors.New("empty target location")
	}
	if req.Projection.ContentHash != req.ContentHash {
		return address.Location{}, errors.New("projection content hash mismatch")
	}
	raw, err := types.Encode(req.Projection)
	if err != nil {
		return address.Location{}, fmt.Errorf("encode projection: %w", err)
	}
	blob, err := pack(raw, c.codec)
	if err != nil {
		return address.Location{}, err
	}
	if err := c.db.SetProjection(req.Target, blob, nil); err != nil {
		return address.Location{}, fmt.Errorf("store projection: %w", err)
	}
	c.logger.Debug(
		"stored compressed projection",
		"location", req.Target.String(),
		"codec", Codec(blob[0]).String(),
		"raw_size", len(raw),
		"stored_size", len(blob),
	)
	return req.Target, nil
}

// Load returns the projection stored at loc
func (c *BlobCompressor) Load(
	ctx context.Context,
	loc address.Location,
) (*Projection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blob, err := c.db.Projection(loc, nil)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	raw, _, err := unpack(blob)
	if err != nil {
		return nil, err
	}
	ret := &Projection{}
	if err := types.Decode(raw, ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return ret, nil
}
