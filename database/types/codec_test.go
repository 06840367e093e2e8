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

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database/types"
)

func TestEncodeDeterministic(t *testing.T) {
	a := map[string]uint64{"b": 2, "a": 1, "c": 3}
	b := map[string]uint64{"c": 3, "a": 1, "b": 2}
	encA, err := types.Encode(a)
	require.NoError(t, err)
	encB, err := types.Encode(b)
	require.NoError(t, err)
	assert.Equal(t, encA, encB)
}

func TestBlobKeysDistinct(t *testing.T) {
	loc := address.Derive(address.NamespaceConfig)
	assert.NotEqual(t, types.RecordBlobKey(loc), types.ProjectionBlobKey(loc))
	assert.Len(t, types.RecordBlobKey(loc), 1+address.Size)
}
