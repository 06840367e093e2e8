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

// Package eventlog persists ledger events to the metadata store as an
// append-only log.
package eventlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/database/models"
	"github.com/blinklabs-io/attest/database/types"
	"github.com/blinklabs-io/attest/event"
	"github.com/blinklabs-io/attest/ledger"
)

// Entry is one persisted event
type Entry struct {
	Sequence    uint64             `json:"sequence"`
	Type        event.EventType    `json:"type"`
	ContentHash ledger.ContentHash `json:"contentHash,omitzero"`
	Timestamp   int64              `json:"timestamp"`
	Data        any                `json:"data"`
}

// Filter selects log entries. Zero values match everything
type Filter struct {
	Type        event.EventType
	ContentHash ledger.ContentHash
	// After only returns entries with a sequence number greater than this
	After      uint64
	Limit      int
	Offset     int
	Descending bool
}

func (f Filter) model() models.EventFilter {
	ret := models.EventFilter{
		Type:       string(f.Type),
		After:      f.After,
		Limit:      f.Limit,
		Offset:     f.Offset,
		Descending: f.Descending,
	}
	if !f.ContentHash.IsZero() {
		ret.ContentHash = f.ContentHash.Bytes()
	}
	return ret
}

// Log is an event bus subscriber that appends every ledger event to the
// metadata store
type Log struct {
	db     *database.Database
	logger *slog.Logger
	bus    *event.EventBus
	subIds map[event.EventType]event.EventSubscriberId
	mu     sync.Mutex
	closed bool
}

func New(db *database.Database, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Log{
		db:     db,
		logger: logger.With("component", "eventlog"),
		subIds: make(map[event.EventType]event.EventSubscriberId),
	}
}

// Attach subscribes the log to every ledger event type on bus
func (l *Log) Attach(bus *event.EventBus) {
	l.mu.Lock()
	l.bus = bus
	l.mu.Unlock()
	for _, evtType := range ledger.EventTypes {
		subId := bus.RegisterSubscriber(evtType, l)
		l.mu.Lock()
		l.subIds[evtType] = subId
		l.mu.Unlock()
	}
}

// Detach unsubscribes the log from the bus it was attached to
func (l *Log) Detach() {
	l.mu.Lock()
	bus := l.bus
	subIds := l.subIds
	l.bus = nil
	l.subIds = make(map[event.EventType]event.EventSubscriberId)
	l.mu.Unlock()
	if bus == nil {
		return
	}
	for evtType, subId := range subIds {
		bus.Unsubscribe(evtType, subId)
	}
}

// Deliver appends evt to the log
func (l *Log) Deliver(evt event.Event) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return event.ErrSubscriberClosed
	}
	payload, err := types.Encode(evt.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	row := &models.Event{
		Type:      string(evt.Type),
		Payload:   payload,
		Timestamp: evt.Timestamp.Unix(),
	}
	if ae, ok := evt.Data.(ledger.AttestationEvent); ok {
		row.ContentHash = ae.AttestationContentHash().Bytes()
	}
	if err := l.db.AddEvent(row, nil); err != nil {
		return fmt.Errorf("append %s event: %w", evt.Type, err)
	}
	l.logger.Debug(
		"event appended",
		"type", evt.Type,
		"sequence", row.ID,
	)
	return nil
}

// Close stops the log from accepting further events. It is safe to call
// more than once
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// List returns the log entries matching filter in sequence order
func (l *Log) List(filter Filter) ([]Entry, error) {
	rows, err := l.db.Events(filter.model(), nil)
	if err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	ret := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := entryFromModel(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, entry)
	}
	return ret, nil
}

// Count returns the number of log entries matching filter. Limit and
// Offset are ignored
func (l *Log) Count(filter Filter) (int64, error) {
	count, err := l.db.CountEvents(filter.model(), nil)
	if err != nil {
		return 0, fmt.Errorf("count event log: %w", err)
	}
	return count, nil
}

var errShortContentHash = errors.New("stored content hash has wrong length")

func entryFromModel(row models.Event) (Entry, error) {
	entry := Entry{
		Sequence:  row.ID,
		Type:      event.EventType(row.Type),
		Timestamp: row.Timestamp,
	}
	if len(row.ContentHash) > 0 {
		if len(row.ContentHash) != len(entry.ContentHash) {
			return Entry{}, fmt.Errorf(
				"event %d: %w",
				row.ID,
				errShortContentHash,
			)
		}
		copy(entry.ContentHash[:], row.ContentHash)
	}
	data, err := ledger.DecodeEvent(entry.Type, row.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("event %d: %w", row.ID, err)
	}
	entry.Data = data
	return entry, nil
}
