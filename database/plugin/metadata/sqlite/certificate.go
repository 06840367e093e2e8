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

	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
)

// AddCertificate stores a minted certificate. A certificate with the same
// asset id returns types.ErrRecordExists
func (d *MetadataStoreSqlite) AddCertificate(
	cert *models.Certificate,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	var count int64
	result := db.Model(&models.Certificate{}).
		Where("asset_id = ?", cert.AssetID).
		Count(&count)
	if result.Error != nil {
		return result.Error
	}
	if count > 0 {
		return types.ErrRecordExists
	}
	return db.Create(cert).Error
}

// GetCertificate returns the certificate with the given asset id, or nil if
// there is none
func (d *MetadataStoreSqlite) GetCertificate(
	assetID []byte,
	txn types.Txn,
) (*models.Certificate, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Certificate{}
	result := db.First(ret, "asset_id = ?", assetID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCertificatesByContentHash returns every certificate minted for a
// content hash, oldest first
func (d *MetadataStoreSqlite) GetCertificatesByContentHash(
	contentHash []byte,
	txn types.Txn,
) ([]models.Certificate, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Certificate
	result := db.Where("content_hash = ?", contentHash).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
