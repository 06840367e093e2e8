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

// Package compression materializes compact projections of attestation
// records.
package compression

import (
	"context"

	"github.com/blinklabs-io/attest/address"
)

// Projection is the size-reduced copy of an attestation. The content type
// is replaced by an 8-byte digest
type Projection struct {
	ContentHash     [32]byte
	Creator         address.Identity
	Certificate     address.Location
	ContentTypeHash [8]byte
	CreatedAt       int64
	AiProbability   uint16
	Verified        bool
	Certified       bool
}

// CompressRequest asks a Compressor to store a projection at Target
type CompressRequest struct {
	ContentHash [32]byte
	Target      address.Location
	Projection  Projection
}

// Compressor materializes projections. A returned error aborts the calling
// operation
type Compressor interface {
	Compress(ctx context.Context, req CompressRequest) (address.Location, error)
}
