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

package database

import (
	"errors"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database/types"
)

var (
	// ErrRecordNotFound is returned when no record is stored at a location
	ErrRecordNotFound = errors.New("record not found")
	// ErrLocationOccupied is returned when inserting at a location that
	// already holds a record
	ErrLocationOccupied = errors.New("location already occupied")
)

// Record returns the stored bytes of the ledger record at loc
func (d *Database) Record(
	loc address.Location,
	txn *Txn,
) ([]byte, error) {
	return d.getBlob(types.RecordBlobKey(loc), txn)
}

// InsertRecord stores a new ledger record. An occupied location returns
// ErrLocationOccupied and is left untouched
func (d *Database) InsertRecord(
	loc address.Location,
	data []byte,
	txn *Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	err := d.blob.Insert(txn.Blob(), types.RecordBlobKey(loc), data)
	if errors.Is(err, types.ErrBlobKeyOccupied) {
		return ErrLocationOccupied
	}
	return err
}

// SetRecord replaces the ledger record at loc
func (d *Database) SetRecord(
	loc address.Location,
	data []byte,
	txn *Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return d.blob.Set(txn.Blob(), types.RecordBlobKey(loc), data)
}

// DeleteRecord removes the ledger record at loc
func (d *Database) DeleteRecord(loc address.Location, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return d.blob.Delete(txn.Blob(), types.RecordBlobKey(loc))
}

// Projection returns the stored compressed projection at loc
func (d *Database) Projection(
	loc address.Location,
	txn *Txn,
) ([]byte, error) {
	return d.getBlob(types.ProjectionBlobKey(loc), txn)
}

// SetProjection stores a compressed projection at loc, replacing any
// previous value
func (d *Database) SetProjection(
	loc address.Location,
	data []byte,
	txn *Txn,
) error {
	if txn == nil {
		txn = d.BlobTransaction(true)
		return txn.Do(func(txn *Txn) error {
			return d.SetProjection(loc, data, txn)
		})
	}
	return d.blob.Set(txn.Blob(), types.ProjectionBlobKey(loc), data)
}

func (d *Database) getBlob(key []byte, txn *Txn) ([]byte, error) {
	if txn == nil {
		txn = d.BlobTransaction(false)
		defer txn.Release()
	}
	val, err := d.blob.Get(txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return val, nil
}
