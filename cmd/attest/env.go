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

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/blinklabs-io/attest/compression"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/event"
	"github.com/blinklabs-io/attest/eventlog"
	"github.com/blinklabs-io/attest/internal/config"
	"github.com/blinklabs-io/attest/keystore"
	"github.com/blinklabs-io/attest/ledger"
)

// ledgerEnv is an opened database with the ledger and event log wired up
type ledgerEnv struct {
	db         *database.Database
	bus        *event.EventBus
	events     *eventlog.Log
	ledger     *ledger.Ledger
	compressor *compression.BlobCompressor
	logger     *slog.Logger
}

func openLedger(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*ledgerEnv, error) {
	db, err := database.New(&database.Config{
		Logger:         logger,
		PromRegistry:   promRegistry,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
		DataDir:        cfg.DatabasePath,
		BlockCacheSize: cfg.BadgerBlockCacheSize,
		IndexCacheSize: cfg.BadgerIndexCacheSize,
		Tracing:        cfg.Tracing,
	})
	if err != nil {
		return nil, err
	}
	bus := event.NewEventBus(promRegistry, logger)
	events := eventlog.New(db, logger)
	events.Attach(bus)
	compressor := compression.NewBlobCompressor(db, cfg.Codec(), logger)
	l, err := ledger.New(ledger.Config{
		Database:     db,
		EventBus:     bus,
		Compressor:   compressor,
		Logger:       logger,
		PromRegistry: promRegistry,
	})
	if err != nil {
		bus.Stop()
		return nil, errors.Join(err, db.Close())
	}
	return &ledgerEnv{
		db:         db,
		bus:        bus,
		events:     events,
		ledger:     l,
		compressor: compressor,
		logger:     logger,
	}, nil
}

func (e *ledgerEnv) Close() error {
	e.events.Detach()
	e.bus.Stop()
	return e.db.Close()
}

// runLedger opens the ledger for a one-shot command. Logs go to stderr so
// they do not mix with command output
func runLedger(
	cmd *cobra.Command,
	flags *globalFlags,
	fn func(ctx context.Context, env *ledgerEnv) error,
) (err error) {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), flags.debug)
	env, err := openLedger(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, env.Close())
	}()
	return fn(cmd.Context(), env)
}

// runSigned is runLedger for commands acting as the configured key's
// identity
func runSigned(
	cmd *cobra.Command,
	flags *globalFlags,
	fn func(ctx context.Context, env *ledgerEnv, key *keystore.Key) error,
) error {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return err
	}
	key, err := loadKey(cfg)
	if err != nil {
		return err
	}
	return runLedger(
		cmd,
		flags,
		func(ctx context.Context, env *ledgerEnv) error {
			return fn(ctx, env, key)
		},
	)
}
