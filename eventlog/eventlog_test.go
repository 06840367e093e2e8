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

package eventlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/event"
	"github.com/blinklabs-io/attest/eventlog"
	"github.com/blinklabs-io/attest/ledger"
)

func identity(b byte) address.Identity {
	var ret address.Identity
	for i := range ret {
		ret[i] = b
	}
	return ret
}

type testEnv struct {
	db     *database.Database
	bus    *event.EventBus
	log    *eventlog.Log
	ledger *ledger.Ledger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	log := eventlog.New(db, nil)
	log.Attach(bus)
	l, err := ledger.New(ledger.Config{
		Database: db,
		EventBus: bus,
		Clock:    func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	require.NoError(t, err)
	return &testEnv{db: db, bus: bus, log: log, ledger: l}
}

func TestLogRecordsLedgerEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := identity(1)
	alice := identity(2)
	hash := ledger.HashContent([]byte("hello"))
	require.NoError(t, env.ledger.Initialize(ctx, admin))
	_, err := env.ledger.CreateAttestation(ctx, alice, ledger.CreateParams{
		ContentHash:   hash,
		ContentType:   "text/plain",
		AiProbability: 9000,
	})
	require.NoError(t, err)
	require.NoError(t, env.ledger.VerifyAttestation(ctx, admin, hash))
	require.NoError(t, env.ledger.SetPaused(ctx, admin, true))

	entries, err := env.log.List(eventlog.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(
		t,
		[]event.EventType{
			ledger.EventTypeProgramInitialized,
			ledger.EventTypeAttestationCreated,
			ledger.EventTypeAttestationVerified,
			ledger.EventTypeProgramPauseToggled,
		},
		[]event.EventType{
			entries[0].Type,
			entries[1].Type,
			entries[2].Type,
			entries[3].Type,
		},
	)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i].Sequence, entries[i-1].Sequence)
	}
	for _, entry := range entries {
		assert.Equal(t, int64(1_700_000_000), entry.Timestamp)
	}
	created, ok := entries[1].Data.(*ledger.AttestationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, hash, created.ContentHash)
	assert.Equal(t, alice, created.Creator)
	assert.Equal(t, uint16(9000), created.AiProbability)
	assert.Equal(t, hash, entries[1].ContentHash)
	assert.True(t, entries[0].ContentHash.IsZero())

	byHash, err := env.log.List(eventlog.Filter{ContentHash: hash})
	require.NoError(t, err)
	assert.Len(t, byHash, 2)

	byType, err := env.log.List(
		eventlog.Filter{Type: ledger.EventTypeAttestationVerified},
	)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	verified, ok := byType[0].Data.(*ledger.AttestationVerifiedEvent)
	require.True(t, ok)
	assert.Equal(t, admin, verified.VerifiedBy)

	after, err := env.log.List(
		eventlog.Filter{After: entries[1].Sequence, Limit: 1},
	)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, entries[2].Sequence, after[0].Sequence)

	count, err := env.log.Count(eventlog.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestLogRejectedOperationsNotRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := identity(1)
	require.NoError(t, env.ledger.Initialize(ctx, admin))
	require.Error(t, env.ledger.Initialize(ctx, admin))
	require.Error(t, env.ledger.SetPaused(ctx, identity(9), true))
	count, err := env.log.Count(eventlog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLogClosed(t *testing.T) {
	env := newTestEnv(t)
	env.log.Close()
	env.log.Close()
	err := env.log.Deliver(
		event.NewEvent(
			ledger.EventTypeProgramInitialized,
			ledger.ProgramInitializedEvent{Admin: identity(1)},
		),
	)
	require.ErrorIs(t, err, event.ErrSubscriberClosed)
}

func TestLogDetach(t *testing.T) {
	env := newTestEnv(t)
	env.log.Detach()
	require.NoError(t, env.ledger.Initialize(context.Background(), identity(1)))
	count, err := env.log.Count(eventlog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
