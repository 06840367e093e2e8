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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/attest/internal/config"
	"github.com/blinklabs-io/attest/keystore"
	"github.com/blinklabs-io/attest/ledger"
)

func loadKey(cfg *config.Config) (*keystore.Key, error) {
	key, err := keystore.LoadKey(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	return key, nil
}

func keygenCommand() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keystore.Generate()
			if err != nil {
				return err
			}
			if err := key.SaveSigningKey(outFile); err != nil {
				return err
			}
			vkeyFile := strings.TrimSuffix(outFile, filepath.Ext(outFile)) + ".vkey"
			if err := key.SaveVerificationKey(vkeyFile); err != nil {
				return err
			}
			return writeOutput(cmd, map[string]string{
				"identity":         key.Identity().String(),
				"signing_key":      outFile,
				"verification_key": vkeyFile,
			})
		},
	}
	cmd.Flags().
		StringVarP(&outFile, "out", "o", "attest.skey", "signing key file to create")
	return cmd
}

func identityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Show the identity of the configured signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			key, err := loadKey(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key.Identity().String())
			return err
		},
	}
}

func hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the content hash of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(
				cmd.OutOrStdout(),
				ledger.HashContent(data).String(),
			)
			return err
		},
	}
}
