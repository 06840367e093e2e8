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

package blob

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/attest/database/plugin/blob/badger"
	"github.com/blinklabs-io/attest/database/types"
)

// BlobStore is the key-value store holding ledger records
type BlobStore interface {
	Close() error
	NewTransaction(update bool) types.Txn
	Get(txn types.Txn, key []byte) ([]byte, error)
	Set(txn types.Txn, key, val []byte) error
	Insert(txn types.Txn, key, val []byte) error
	Delete(txn types.Txn, key []byte) error

	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
}

// Options carries the settings shared by blob store backends
type Options struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	DataDir        string
	BlockCacheSize uint64
	IndexCacheSize uint64
}

// New returns the blob store backend selected by name
func New(pluginName string, opts Options) (BlobStore, error) {
	switch pluginName {
	case "", "badger":
		return badger.New(
			badger.WithLogger(opts.Logger),
			badger.WithPromRegistry(opts.PromRegistry),
			badger.WithDataDir(opts.DataDir),
			badger.WithBlockCacheSize(opts.BlockCacheSize),
			badger.WithIndexCacheSize(opts.IndexCacheSize),
		)
	default:
		return nil, fmt.Errorf("blob plugin '%s' not found", pluginName)
	}
}
