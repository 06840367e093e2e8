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
	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
)

// metadataTxn returns the metadata handle of txn. A nil txn runs directly
// against the metadata store
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// AttestationIndex returns the index row for a content hash, or nil
func (d *Database) AttestationIndex(
	contentHash []byte,
	txn *Txn,
) (*models.Attestation, error) {
	return d.metadata.GetAttestation(contentHash, metadataTxn(txn))
}

// SetAttestationIndex creates or updates the index row of an attestation
func (d *Database) SetAttestationIndex(
	row *models.Attestation,
	txn *Txn,
) error {
	return d.metadata.SetAttestation(row, metadataTxn(txn))
}

// DeleteAttestationIndex removes the index row of an attestation
func (d *Database) DeleteAttestationIndex(
	contentHash []byte,
	txn *Txn,
) error {
	return d.metadata.DeleteAttestation(contentHash, metadataTxn(txn))
}

// AttestationIndexes returns index rows matching filter
func (d *Database) AttestationIndexes(
	filter models.AttestationFilter,
	txn *Txn,
) ([]models.Attestation, error) {
	return d.metadata.GetAttestations(filter, metadataTxn(txn))
}

// CountAttestationIndexes returns the number of index rows matching filter
func (d *Database) CountAttestationIndexes(
	filter models.AttestationFilter,
	txn *Txn,
) (int64, error) {
	return d.metadata.CountAttestations(filter, metadataTxn(txn))
}

// AddEvent appends an event log entry
func (d *Database) AddEvent(event *models.Event, txn *Txn) error {
	return d.metadata.AddEvent(event, metadataTxn(txn))
}

// Events returns event log entries matching filter
func (d *Database) Events(
	filter models.EventFilter,
	txn *Txn,
) ([]models.Event, error) {
	return d.metadata.GetEvents(filter, metadataTxn(txn))
}

// CountEvents returns the number of event log entries matching filter
func (d *Database) CountEvents(
	filter models.EventFilter,
	txn *Txn,
) (int64, error) {
	return d.metadata.CountEvents(filter, metadataTxn(txn))
}

// AddCertificate stores a minted certificate
func (d *Database) AddCertificate(
	cert *models.Certificate,
	txn *Txn,
) error {
	return d.metadata.AddCertificate(cert, metadataTxn(txn))
}

// Certificate returns the certificate with the given asset id, or nil
func (d *Database) Certificate(
	assetID []byte,
	txn *Txn,
) (*models.Certificate, error) {
	return d.metadata.GetCertificate(assetID, metadataTxn(txn))
}

// CertificatesByContentHash returns the certificates minted for a content
// hash
func (d *Database) CertificatesByContentHash(
	contentHash []byte,
	txn *Txn,
) ([]models.Certificate, error) {
	return d.metadata.GetCertificatesByContentHash(
		contentHash,
		metadataTxn(txn),
	)
}
