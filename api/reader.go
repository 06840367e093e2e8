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

package api

import (
	"context"

	"github.com/blinklabs-io/attest/eventlog"
	"github.com/blinklabs-io/attest/ledger"
)

// LedgerReader is the read side of the ledger used by the API
type LedgerReader interface {
	Config(ctx context.Context) (*ledger.ProgramConfig, error)
	Attestation(
		ctx context.Context,
		contentHash ledger.ContentHash,
	) (*ledger.Attestation, error)
	ListAttestations(
		ctx context.Context,
		filter ledger.ListFilter,
	) ([]*ledger.Attestation, error)
	CountAttestations(
		ctx context.Context,
		filter ledger.ListFilter,
	) (int64, error)
}

// EventReader is the read side of the event log used by the API
type EventReader interface {
	List(filter eventlog.Filter) ([]eventlog.Entry, error)
	Count(filter eventlog.Filter) (int64, error)
}
