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

// Package ledger implements the attestation state engine: the program
// configuration singleton and the per-record attestation lifecycle.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/certificate"
	"github.com/blinklabs-io/attest/compression"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/database/types"
	"github.com/blinklabs-io/attest/event"
)

const tracerName = "github.com/blinklabs-io/attest/ledger"

// Config holds the collaborators of a Ledger. Only Database is required
type Config struct {
	Database     *database.Database
	EventBus     *event.EventBus
	Issuer       certificate.Issuer
	Compressor   compression.Compressor
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Clock returns the current time. Defaults to time.Now
	Clock func() time.Time
}

// Ledger owns the attestation records. Every mutation runs under a single
// write lock inside one database transaction, and its event is published
// after commit before the lock is released
type Ledger struct {
	mu         sync.Mutex
	db         *database.Database
	eventBus   *event.EventBus
	issuer     certificate.Issuer
	compressor compression.Compressor
	logger     *slog.Logger
	tracer     trace.Tracer
	clock      func() time.Time
	metrics    *ledgerMetrics
}

func New(cfg Config) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, errors.New("ledger: database is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Issuer == nil {
		cfg.Issuer = certificate.NewLocalIssuer(cfg.Database, cfg.Logger)
	}
	if cfg.Compressor == nil {
		cfg.Compressor = compression.NewBlobCompressor(
			cfg.Database,
			compression.CodecZstd,
			cfg.Logger,
		)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	l := &Ledger{
		db:         cfg.Database,
		eventBus:   cfg.EventBus,
		issuer:     cfg.Issuer,
		compressor: cfg.Compressor,
		logger:     cfg.Logger.With("component", "ledger"),
		tracer:     otel.Tracer(tracerName),
		clock:      cfg.Clock,
	}
	if cfg.PromRegistry != nil {
		l.metrics = &ledgerMetrics{}
		l.metrics.init(cfg.PromRegistry)
		if pc, err := l.loadConfig(); err == nil {
			l.metrics.observeConfig(pc)
		}
	}
	return l, nil
}

func (l *Ledger) now() int64 {
	return l.clock().Unix()
}

// startOp opens a span for a ledger operation. The returned func records
// the outcome and must be called with the operation's final error
func (l *Ledger) startOp(
	ctx context.Context,
	op string,
	attrs ...attribute.KeyValue,
) (context.Context, func(error)) {
	ctx, span := l.tracer.Start(
		ctx,
		"ledger."+op,
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("error.kind", ErrorKind(err)))
		}
		span.End()
		l.metrics.observeOperation(op, err)
		if err != nil {
			l.logger.Debug(
				"operation rejected",
				"operation", op,
				"kind", ErrorKind(err),
				"error", err,
			)
		}
	}
}

// publish sends an event on the bus, if one is configured
func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.eventBus == nil {
		return
	}
	l.eventBus.Publish(eventType, event.NewEventAt(eventType, data, l.clock()))
}

var configLocation = address.Derive(address.NamespaceConfig)

// AttestationLocation returns the storage location of the attestation for
// contentHash
func AttestationLocation(contentHash ContentHash) address.Location {
	return address.Derive(address.NamespaceAttestation, contentHash[:])
}

// CompressedLocation returns the location of the compressed projection of
// the attestation for contentHash
func CompressedLocation(contentHash ContentHash) address.Location {
	return address.Derive(address.NamespaceCompressed, contentHash[:])
}

// loadConfig reads the program config in its own read transaction
func (l *Ledger) loadConfig() (*ProgramConfig, error) {
	data, err := l.db.Record(configLocation, nil)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	ret := &ProgramConfig{}
	if err := types.Decode(data, ret); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return ret, nil
}

// loadAttestation reads the attestation for contentHash in its own read
// transaction
func (l *Ledger) loadAttestation(contentHash ContentHash) (*Attestation, error) {
	data, err := l.loadAttestationRaw(contentHash)
	if err != nil {
		return nil, err
	}
	ret := &Attestation{}
	if err := types.Decode(data, ret); err != nil {
		return nil, fmt.Errorf("decode attestation: %w", err)
	}
	return ret, nil
}

func (l *Ledger) loadAttestationRaw(contentHash ContentHash) ([]byte, error) {
	data, err := l.db.Record(AttestationLocation(contentHash), nil)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrAttestationNotFound
		}
		return nil, fmt.Errorf("read attestation: %w", err)
	}
	return data, nil
}

// loadOwned reads an attestation and checks that caller created it
func (l *Ledger) loadOwned(
	caller address.Identity,
	contentHash ContentHash,
) (*Attestation, error) {
	att, err := l.loadAttestation(contentHash)
	if err != nil {
		return nil, err
	}
	if att.Creator != caller {
		return nil, ErrUnauthorized
	}
	return att, nil
}

// loadAdminConfig reads the config and checks that caller is the admin
func (l *Ledger) loadAdminConfig(caller address.Identity) (*ProgramConfig, error) {
	pc, err := l.loadConfig()
	if err != nil {
		return nil, err
	}
	if pc.Admin != caller {
		return nil, ErrUnauthorized
	}
	return pc, nil
}

// write runs fn in a read-write transaction over both stores
func (l *Ledger) write(fn func(txn *database.Txn) error) error {
	txn := l.db.Transaction(true)
	return txn.Do(fn)
}

// putAttestation overwrites an attestation record and refreshes its index
// row
func (l *Ledger) putAttestation(att *Attestation, txn *database.Txn) error {
	data, err := types.Encode(att)
	if err != nil {
		return fmt.Errorf("encode attestation: %w", err)
	}
	if err := l.db.SetRecord(
		AttestationLocation(att.ContentHash),
		data,
		txn,
	); err != nil {
		return fmt.Errorf("write attestation: %w", err)
	}
	if err := l.db.SetAttestationIndex(indexRow(att), txn); err != nil {
		return fmt.Errorf("write attestation index: %w", err)
	}
	return nil
}

func (l *Ledger) putConfig(pc *ProgramConfig, txn *database.Txn) error {
	data, err := types.Encode(pc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := l.db.SetRecord(configLocation, data, txn); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	txn.OnCommit(func() { l.metrics.observeConfig(pc) })
	return nil
}

func checkedIncrement(v uint64) (uint64, error) {
	if v == ^uint64(0) {
		return 0, ErrOverflow
	}
	return v + 1, nil
}
