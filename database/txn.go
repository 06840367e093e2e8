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
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/attest/database/types"
)

// txnScope selects the stores a transaction spans
type txnScope int

const (
	scopeAll txnScope = iota
	scopeBlob
)

// Txn spans the blob store and, unless blob-only, the metadata store. Ledger
// records and their index rows are written through the same Txn so they
// commit or roll back together.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	onCommit    []func()
	mu          sync.Mutex
	readWrite   bool
	done        bool
}

func newTxn(db *Database, readWrite bool, scope txnScope) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if db.blob != nil {
		t.blobTxn = db.blob.NewTransaction(readWrite)
	}
	if scope == scopeAll && db.metadata != nil {
		t.metadataTxn = db.metadata.Transaction()
	}
	return t
}

// Blob returns the blob store transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// Metadata returns the metadata store transaction handle, nil for blob-only
// transactions
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// OnCommit registers fn to run after a successful commit. Hooks run in
// registration order and are dropped on rollback
func (t *Txn) OnCommit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCommit = append(t.onCommit, fn)
}

// Do runs fn inside the transaction, committing when it returns nil and
// rolling back otherwise
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Commit commits the blob store first so a failed blob write never leaves a
// metadata row pointing at a missing record
func (t *Txn) Commit() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	if !t.readWrite {
		err := t.finish()
		t.mu.Unlock()
		return err
	}
	if t.blobTxn == nil && t.metadataTxn == nil {
		t.done = true
		t.mu.Unlock()
		return types.ErrNoStoreAvailable
	}
	if err := t.commit(); err != nil {
		t.mu.Unlock()
		return err
	}
	hooks := t.onCommit
	t.onCommit = nil
	t.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
	return nil
}

func (t *Txn) commit() error {
	t.done = true
	if t.blobTxn != nil && t.metadataTxn != nil {
		ts := time.Now().UnixMilli()
		if err := t.db.updateCommitTimestamp(t, ts); err != nil {
			_ = t.blobTxn.Rollback()
			_ = t.metadataTxn.Rollback()
			return fmt.Errorf("update commit timestamp: %w", err)
		}
	}
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			if t.metadataTxn != nil {
				_ = t.metadataTxn.Rollback()
			}
			return fmt.Errorf("blob commit: %w", err)
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Commit(); err != nil {
			t.db.logger.Error(
				"metadata commit failed after blob commit",
				"error", err,
			)
			_ = t.metadataTxn.Rollback()
			return fmt.Errorf("metadata commit: %w", err)
		}
	}
	return nil
}

// Rollback discards the transaction and its commit hooks
func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finish()
}

func (t *Txn) finish() error {
	if t.done {
		return nil
	}
	t.done = true
	t.onCommit = nil
	var errs []error
	if t.blobTxn != nil {
		if err := t.blobTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("blob rollback: %w", err))
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Release rolls back the transaction, logging any error. Meant for defer
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
