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

// Attestation is the queryable index row of a ledger attestation record.
// The record itself lives in the blob store and is authoritative
type Attestation struct {
	ID             uint   `gorm:"primarykey"`
	ContentHash    []byte `gorm:"uniqueIndex;size:32;not null"`
	Creator        []byte `gorm:"index;size:32;not null"`
	ContentType    string `gorm:"size:20"`
	DetectionModel string `gorm:"size:32"`
	CreatedAt      int64  `gorm:"autoCreateTime:false;index"`
	VerifiedAt     int64
	AiProbability  uint16
	Verified       bool `gorm:"index"`
	Certified      bool
	Compressed     bool
}

func (Attestation) TableName() string {
	return "attestation"
}

// AttestationFilter selects index rows. Zero values match everything
type AttestationFilter struct {
	Creator  []byte
	Verified *bool
	Limit    int
	Offset   int
	// Descending orders newest first
	Descending bool
}
