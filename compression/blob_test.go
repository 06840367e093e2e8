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

package compression_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/compression"
	"github.com/blinklabs-io/attest/database"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRequest() compression.CompressRequest {
	var hash [32]byte
	hash[0] = 0xaa
	var creator address.Identity
	creator[1] = 0xbb
	return compression.CompressRequest{
		ContentHash: hash,
		Target:      address.Derive(address.NamespaceCompressed, hash[:]),
		Projection: compression.Projection{
			ContentHash:     hash,
			AiProbability:   8500,
			ContentTypeHash: [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
			Creator:         creator,
			CreatedAt:       1700000000,
			Verified:        true,
		},
	}
}

func TestBlobCompressorRoundTrip(t *testing.T) {
	for _, codec := range []compression.Codec{
		compression.CodecZstd,
		compression.CodecLZ4,
		compression.CodecNone,
	} {
		t.Run(codec.String(), func(t *testing.T) {
			c := compression.NewBlobCompressor(newTestDatabase(t), codec, nil)
			req := testRequest()
			loc, err := c.Compress(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, req.Target, loc)

			got, err := c.Load(context.Background(), loc)
			require.NoError(t, err)
			assert.Equal(t, req.Projection, *got)
		})
	}
}

func TestBlobCompressorOverwrite(t *testing.T) {
	c := compression.NewBlobCompressor(newTestDatabase(t), compression.CodecZstd, nil)
	req := testRequest()
	_, err := c.Compress(context.Background(), req)
	require.NoError(t, err)
	req.Projection.Verified = false
	_, err = c.Compress(context.Background(), req)
	require.NoError(t, err)
	got, err := c.Load(context.Background(), req.Target)
	require.NoError(t, err)
	assert.False(t, got.Verified)
}

func TestBlobCompressorErrors(t *testing.T) {
	c := compression.NewBlobCompressor(newTestDatabase(t), compression.CodecZstd, nil)
	_, err := c.Load(context.Background(), address.Derive(address.NamespaceCompressed))
	require.ErrorIs(t, err, compression.ErrNotFound)

	req := testRequest()
	req.Target = address.Location{}
	_, err = c.Compress(context.Background(), req)
	require.Error(t, err)

	req = testRequest()
	req.Projection.ContentHash[0] = 0
	_, err = c.Compress(context.Background(), req)
	require.Error(t, err)
}
