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
	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
)

// AddEvent appends an entry to the event log and sets its sequence number
func (d *MetadataStoreSqlite) AddEvent(
	event *models.Event,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(event).Error
}

// GetEvents returns event log entries matching filter in sequence order
func (d *MetadataStoreSqlite) GetEvents(
	filter models.EventFilter,
	txn types.Txn,
) ([]models.Event, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if len(filter.ContentHash) > 0 {
		query = query.Where("content_hash = ?", filter.ContentHash)
	}
	if filter.After > 0 {
		query = query.Where("id > ?", filter.After)
	}
	if filter.Descending {
		query = query.Order("id DESC")
	} else {
		query = query.Order("id ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var ret []models.Event
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountEvents returns the number of event log entries matching filter.
// Limit and Offset are ignored
func (d *MetadataStoreSqlite) CountEvents(
	filter models.EventFilter,
	txn types.Txn,
) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	query := db.Model(&models.Event{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if len(filter.ContentHash) > 0 {
		query = query.Where("content_hash = ?", filter.ContentHash)
	}
	if filter.After > 0 {
		query = query.Where("id > ?", filter.After)
	}
	var ret int64
	if result := query.Count(&ret); result.Error != nil {
		return 0, result.Error
	}
	return ret, nil
}
