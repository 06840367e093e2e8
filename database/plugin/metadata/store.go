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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/attest/database/types"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Attestation index
	GetAttestation([]byte, types.Txn) (*models.Attestation, error)
	GetAttestations(
		models.AttestationFilter,
		types.Txn,
	) ([]models.Attestation, error)
	CountAttestations(models.AttestationFilter, types.Txn) (int64, error)
	SetAttestation(*models.Attestation, types.Txn) error
	DeleteAttestation([]byte, types.Txn) error

	// Event log
	AddEvent(*models.Event, types.Txn) error
	GetEvents(models.EventFilter, types.Txn) ([]models.Event, error)
	CountEvents(models.EventFilter, types.Txn) (int64, error)

	// Certificates
	AddCertificate(*models.Certificate, types.Txn) error
	GetCertificate([]byte, types.Txn) (*models.Certificate, error)
	GetCertificatesByContentHash(
		[]byte,
		types.Txn,
	) ([]models.Certificate, error)
}

// Options configures a metadata store backend
type Options struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	DataDir      string
	Tracing      bool
}

// New returns the metadata store backend selected by name
func New(pluginName string, opts Options) (MetadataStore, error) {
	switch pluginName {
	case "", "sqlite":
		return sqlite.New(
			sqlite.WithDataDir(opts.DataDir),
			sqlite.WithLogger(opts.Logger),
			sqlite.WithPromRegistry(opts.PromRegistry),
			sqlite.WithTracing(opts.Tracing),
		)
	default:
		return nil, fmt.Errorf("metadata plugin '%s' not found", pluginName)
	}
}
