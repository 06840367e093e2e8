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

package models

// Certificate is a certificate asset minted for an attestation
type Certificate struct {
	ID             uint   `gorm:"primarykey"`
	AssetID        []byte `gorm:"uniqueIndex;size:32;not null"`
	ContentHash    []byte `gorm:"index;size:32;not null"`
	Tree           []byte `gorm:"size:32"`
	Owner          []byte `gorm:"size:32;not null"`
	Name           string `gorm:"size:32"`
	Symbol         string `gorm:"size:10"`
	URI            string `gorm:"size:200"`
	Classification string
	// Request is the CBOR encoded mint request
	Request  []byte
	Nonce    uint64
	MintedAt int64
}

func (Certificate) TableName() string {
	return "certificate"
}
