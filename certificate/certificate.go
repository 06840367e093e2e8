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

// Package certificate defines the contract for issuing non-fungible
// certificates for attestations and a local issuer that records them in the
// metadata store.
package certificate

import (
	"context"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database"
)

// TokenStandard names the token standard of an issued certificate
type TokenStandard string

const (
	TokenStandardNonFungible TokenStandard = "NonFungible"
)

// Creator is a creator share in the certificate metadata
type Creator struct {
	Address  address.Identity
	Verified bool
	Share    uint8
}

// Trait names set by the ledger
const (
	TraitClassification = "Classification"
	TraitAiProbability  = "AI Probability"
	TraitContentType    = "Content Type"
	TraitDetectionModel = "Detection Model"
)

// Attribute is a single trait carried in the certificate metadata
type Attribute struct {
	TraitType string
	Value     string
}

// Metadata is the descriptive metadata of a certificate
type Metadata struct {
	Name                 string
	Symbol               string
	URI                  string
	Creators             []Creator
	Attributes           []Attribute
	TokenStandard        TokenStandard
	SellerFeeBasisPoints uint16
	IsMutable            bool
}

// MintRequest asks an Issuer to mint a certificate for an attestation.
// AssetID is the candidate identifier derived by the ledger. Tree is set
// when minting into a registered external tree, with Nonce the leaf index
type MintRequest struct {
	ContentHash  [32]byte
	AssetID      address.Location
	Tree         address.Location
	LeafOwner    address.Identity
	LeafDelegate address.Identity
	Metadata     Metadata
	Nonce        uint64
}

// Batched reports whether the request mints into an external tree
func (r MintRequest) Batched() bool {
	return !r.Tree.IsZero()
}

// Issuer mints certificates. The ledger passes the transaction that links
// the certificate; an issuer that stores state writes it through txn so a
// failed operation leaves nothing behind. A returned error aborts the
// calling operation
type Issuer interface {
	Mint(
		ctx context.Context,
		req MintRequest,
		txn *database.Txn,
	) (address.Location, error)
}
