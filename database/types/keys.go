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

package types

import (
	"slices"

	"github.com/blinklabs-io/attest/address"
)

const (
	RecordBlobKeyPrefix     = "r"
	ProjectionBlobKeyPrefix = "p"

	// CommitTimestampBlobKey is outside both prefixes
	CommitTimestampBlobKey = "_commit_ts"
)

// RecordBlobKey is the blob key of the ledger record at loc
func RecordBlobKey(loc address.Location) []byte {
	return slices.Concat([]byte(RecordBlobKeyPrefix), loc[:])
}

// ProjectionBlobKey is the blob key of the compressed projection at loc
func ProjectionBlobKey(loc address.Location) []byte {
	return slices.Concat([]byte(ProjectionBlobKeyPrefix), loc[:])
}
