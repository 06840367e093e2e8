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

package sqlite

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
)

// GetAttestation returns the index row for a content hash, or nil if there
// is none
func (d *MetadataStoreSqlite) GetAttestation(
	contentHash []byte,
	txn types.Txn,
) (*models.Attestation, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Attestation{}
	result := db.First(ret, "content_hash = ?", contentHash)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetAttestation saves an attestation index row, or updates it if it already exists
func (d *MetadataStoreSqlite) SetAttestation(
	attestation *models.Attestation,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "content_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"creator",
			"content_type",
			"detection_model",
			"created_at",
			"verified_at",
			"ai_probability",
			"verified",
			"certified",
			"compressed",
		}),
	}
	return db.Clauses(onConflict).Create(attestation).Error
}

// DeleteAttestation removes the index row for a content hash
func (d *MetadataStoreSqlite) DeleteAttestation(
	contentHash []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("content_hash = ?", contentHash).
		Delete(&models.Attestation{}).Error
}

// GetAttestations returns the index rows matching filter ordered by creation
func (d *MetadataStoreSqlite) GetAttestations(
	filter models.AttestationFilter,
	txn types.Txn,
) ([]models.Attestation, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := attestationQuery(db, filter)
	order := "created_at ASC, id ASC"
	if filter.Descending {
		order = "created_at DESC, id DESC"
	}
	query = query.Order(order)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var ret []models.Attestation
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountAttestations returns the number of index rows matching filter,
// ignoring its limit and offset
func (d *MetadataStoreSqlite) CountAttestations(
	filter models.AttestationFilter,
	txn types.Txn,
) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	result := attestationQuery(db, filter).
		Model(&models.Attestation{}).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func attestationQuery(
	db *gorm.DB,
	filter models.AttestationFilter,
) *gorm.DB {
	query := db
	if len(filter.Creator) > 0 {
		query = query.Where("creator = ?", filter.Creator)
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	return query
}
