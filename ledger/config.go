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

package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/database"
	"github.com/blinklabs-io/attest/database/types"
)

// Initialize creates the program config with caller as admin
func (l *Ledger) Initialize(
	ctx context.Context,
	caller address.Identity,
) (err error) {
	_, done := l.startOp(ctx, "initialize")
	defer func() { done(err) }()
	if caller.IsZero() {
		return ErrInvalidIdentity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pc := &ProgramConfig{
		Admin:   caller,
		Version: RecordVersion,
	}
	data, err := types.Encode(pc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	err = l.write(func(txn *database.Txn) error {
		txn.OnCommit(func() { l.metrics.observeConfig(pc) })
		return l.db.InsertRecord(configLocation, data, txn)
	})
	if err != nil {
		if errors.Is(err, database.ErrLocationOccupied) {
			return ErrAlreadyInitialized
		}
		return fmt.Errorf("write config: %w", err)
	}
	l.logger.Info("program initialized", "admin", caller.String())
	l.publish(EventTypeProgramInitialized, ProgramInitializedEvent{
		Admin:     caller,
		Timestamp: l.now(),
	})
	return nil
}

// Config returns the program config
func (l *Ledger) Config(ctx context.Context) (*ProgramConfig, error) {
	_, span := l.tracer.Start(ctx, "ledger.config")
	defer span.End()
	return l.loadConfig()
}

// SetPaused sets the pause flag. Only the admin may call it
func (l *Ledger) SetPaused(
	ctx context.Context,
	caller address.Identity,
	paused bool,
) (err error) {
	_, done := l.startOp(
		ctx,
		"set_paused",
		attribute.Bool("paused", paused),
	)
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	pc, err := l.loadAdminConfig(caller)
	if err != nil {
		return err
	}
	pc.IsPaused = paused
	if err := l.write(func(txn *database.Txn) error {
		return l.putConfig(pc, txn)
	}); err != nil {
		return err
	}
	l.logger.Info("program pause toggled", "paused", paused)
	l.publish(EventTypeProgramPauseToggled, ProgramPauseToggledEvent{
		Paused:    paused,
		Admin:     caller,
		Timestamp: l.now(),
	})
	return nil
}

// TransferAdmin hands the admin role to newAdmin. Only the admin may call
// it
func (l *Ledger) TransferAdmin(
	ctx context.Context,
	caller address.Identity,
	newAdmin address.Identity,
) (err error) {
	_, done := l.startOp(ctx, "transfer_admin")
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	pc, err := l.loadAdminConfig(caller)
	if err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return ErrInvalidIdentity
	}
	pc.Admin = newAdmin
	if err := l.write(func(txn *database.Txn) error {
		return l.putConfig(pc, txn)
	}); err != nil {
		return err
	}
	l.logger.Info(
		"admin transferred",
		"old_admin", caller.String(),
		"new_admin", newAdmin.String(),
	)
	l.publish(EventTypeAdminTransferred, AdminTransferredEvent{
		OldAdmin:  caller,
		NewAdmin:  newAdmin,
		Timestamp: l.now(),
	})
	return nil
}

// RegisterExternalTree sets the external tree used for batched certificate
// issuance. Only the admin may call it
func (l *Ledger) RegisterExternalTree(
	ctx context.Context,
	caller address.Identity,
	tree address.Location,
) (err error) {
	_, done := l.startOp(ctx, "register_external_tree")
	defer func() { done(err) }()
	l.mu.Lock()
	defer l.mu.Unlock()
	pc, err := l.loadAdminConfig(caller)
	if err != nil {
		return err
	}
	if tree.IsZero() {
		return ErrInvalidTree
	}
	pc.ExternalTree = ExternalTree{Registered: true, Tree: tree}
	if err := l.write(func(txn *database.Txn) error {
		return l.putConfig(pc, txn)
	}); err != nil {
		return err
	}
	l.logger.Info("external tree registered", "tree", tree.String())
	l.publish(EventTypeMerkleTreeSetup, MerkleTreeSetupEvent{
		Tree:      tree,
		Admin:     caller,
		Timestamp: l.now(),
	})
	return nil
}
