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
	"github.com/fxamacker/cbor/v2"
)

// Records are encoded with Core Deterministic Encoding (RFC 8949 section
// 4.2) so an unchanged record always has identical stored bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("types: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("types: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes v for storage
func Encode(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Decode deserializes stored data into v
func Decode(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
