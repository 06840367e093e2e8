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
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/event"
	"github.com/blinklabs-io/attest/eventlog"
	"github.com/blinklabs-io/attest/keystore"
	"github.com/blinklabs-io/attest/ledger"
)

func parseHashArg(arg string) (ledger.ContentHash, error) {
	ret, err := ledger.ParseContentHash(arg)
	if err != nil {
		return ret, fmt.Errorf("content hash %q: %w", arg, err)
	}
	return ret, nil
}

func initCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the program with the signing key as admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSigned(cmd, flags, func(ctx context.Context, env *ledgerEnv, key *keystore.Key) error {
				if err := env.ledger.Initialize(ctx, key.Identity()); err != nil {
					return err
				}
				pc, err := env.ledger.Config(ctx)
				if err != nil {
					return err
				}
				return writeOutput(cmd, pc)
			})
		},
	}
}

func createCommand(flags *globalFlags) *cobra.Command {
	var (
		params      ledger.CreateParams
		contentFile string
	)
	cmd := &cobra.Command{
		Use:   "create [content-hash]",
		Short: "Create an attestation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case contentFile != "" && len(args) > 0:
				return fmt.Errorf("give either a content hash or --file, not both")
			case contentFile != "":
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return err
				}
				params.ContentHash = ledger.HashContent(data)
			case len(args) == 1:
				hash, err := parseHashArg(args[0])
				if err != nil {
					return err
				}
				params.ContentHash = hash
			default:
				return fmt.Errorf("a content hash or --file is required")
			}
			return runSigned(cmd, flags, func(ctx context.Context, env *ledgerEnv, key *keystore.Key) error {
				att, err := env.ledger.CreateAttestation(ctx, key.Identity(), params)
				if err != nil {
					return err
				}
				return writeOutput(cmd, att)
			})
		},
	}
	cmd.Flags().StringVarP(&contentFile, "file", "f", "", "hash this file for the content hash")
	cmd.Flags().StringVar(&params.ContentType, "content-type", "", "content MIME type")
	cmd.Flags().StringVar(&params.DetectionModel, "model", "", "detection model name")
	cmd.Flags().StringVar(&params.MetadataURI, "uri", "", "metadata document URI")
	cmd.Flags().Uint16VarP(&params.AiProbability, "probability", "p", 0, "AI probability in basis points (0-10000)")
	return cmd
}

func showCommand(flags *globalFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <content-hash>",
		Short: "Show an attestation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := parseHashArg(args[0])
			if err != nil {
				return err
			}
			return runLedger(cmd, flags, func(ctx context.Context, env *ledgerEnv) error {
				if raw {
					data, err := env.ledger.AttestationRaw(ctx, hash)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
					return err
				}
				att, err := env.ledger.Attestation(ctx, hash)
				if err != nil {
					return err
				}
				return writeOutput(cmd, struct {
					*ledger.Attestation
					Classification string `json:"classification"`
				}{att, att.Classification()})
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored record as hex CBOR")
	return cmd
}

func listCommand(flags *globalFlags) *cobra.Command {
	var (
		filter   ledger.ListFilter
		creator  string
		verified string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attestations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creator != "" {
				id, err := address.ParseIdentity(creator)
				if err != nil {
					return fmt.Errorf("creator: %w", err)
				}
				filter.Creator = id
			}
			switch verified {
			case "":
			case "true":
				v := true
				filter.Verified = &v
			case "false":
				v := false
				filter.Verified = &v
			default:
				return fmt.Errorf("--verified must be true or false")
			}
			return runLedger(cmd, flags, func(ctx context.Context, env *ledgerEnv) error {
				atts, err := env.ledger.ListAttestations(ctx, filter)
				if err != nil {
					return err
				}
				return writeOutput(cmd, atts)
			})
		},
	}
	cmd.Flags().StringVar(&creator, "creator", "", "only attestations by this identity")
	cmd.Flags().StringVar(&verified, "verified", "", "filter on verification (true or false)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 100, "maximum results")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "results to skip")
	cmd.Flags().BoolVar(&filter.Descending, "desc", false, "newest first")
	return cmd
}

// hashCommandFunc builds a signed command taking a content hash and
// optional further arguments
func hashCommandFunc(
	flags *globalFlags,
	fn func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, args []string) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		return runSigned(cmd, flags, func(ctx context.Context, env *ledgerEnv, key *keystore.Key) error {
			return fn(ctx, cmd, env, key.Identity(), hash, args[1:])
		})
	}
}

func showAfter(
	ctx context.Context,
	cmd *cobra.Command,
	env *ledgerEnv,
	hash ledger.ContentHash,
) error {
	att, err := env.ledger.Attestation(ctx, hash)
	if err != nil {
		return err
	}
	return writeOutput(cmd, att)
}

func updateMetadataCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update-metadata <content-hash> <uri>",
		Short: "Replace the metadata URI of an attestation",
		Args:  cobra.ExactArgs(2),
		RunE: hashCommandFunc(flags, func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, args []string) error {
			if err := env.ledger.UpdateMetadata(ctx, caller, hash, args[0]); err != nil {
				return err
			}
			return showAfter(ctx, cmd, env, hash)
		}),
	}
}

func linkCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "link <content-hash> <asset-id>",
		Short: "Link an externally minted certificate to an attestation",
		Args:  cobra.ExactArgs(2),
		RunE: hashCommandFunc(flags, func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, args []string) error {
			assetID, err := address.ParseLocation(args[0])
			if err != nil {
				return fmt.Errorf("asset id: %w", err)
			}
			if err := env.ledger.LinkCertificate(ctx, caller, hash, assetID); err != nil {
				return err
			}
			return showAfter(ctx, cmd, env, hash)
		}),
	}
}

func mintCommand(flags *globalFlags) *cobra.Command {
	var params ledger.MintParams
	cmd := &cobra.Command{
		Use:   "mint <content-hash>",
		Short: "Mint a certificate for an attestation",
		Args:  cobra.ExactArgs(1),
		RunE: hashCommandFunc(flags, func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, _ []string) error {
			if _, err := env.ledger.MintCertificate(ctx, caller, hash, params); err != nil {
				return err
			}
			return showAfter(ctx, cmd, env, hash)
		}),
	}
	cmd.Flags().StringVar(&params.Name, "name", "", "certificate name")
	cmd.Flags().StringVar(&params.Symbol, "symbol", "", "certificate symbol")
	cmd.Flags().StringVar(&params.URI, "uri", "", "certificate metadata URI")
	return cmd
}

func verifyCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <content-hash>",
		Short: "Mark an attestation verified (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: hashCommandFunc(flags, func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, _ []string) error {
			if err := env.ledger.VerifyAttestation(ctx, caller, hash); err != nil {
				return err
			}
			return showAfter(ctx, cmd, env, hash)
		}),
	}
}

func compressCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compress <content-hash>",
		Short: "Store a compressed projection of an attestation",
		Args:  cobra.ExactArgs(1),
		RunE: hashCommandFunc(flags, func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, _ []string) error {
			loc, err := env.ledger.CompressAttestation(ctx, caller, hash)
			if err != nil {
				return err
			}
			proj, err := env.compressor.Load(ctx, loc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, map[string]any{
				"address":    loc,
				"projection": proj,
			})
		}),
	}
}

func closeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "close <content-hash>",
		Short: "Close an attestation and free its location",
		Args:  cobra.ExactArgs(1),
		RunE: hashCommandFunc(flags, func(ctx context.Context, cmd *cobra.Command, env *ledgerEnv, caller address.Identity, hash ledger.ContentHash, _ []string) error {
			if err := env.ledger.CloseAttestation(ctx, caller, hash); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "closed", hash.String())
			return err
		}),
	}
}

// configCommandFunc builds a signed admin command that prints the config
// afterwards
func configCommandFunc(
	flags *globalFlags,
	fn func(ctx context.Context, env *ledgerEnv, caller address.Identity, args []string) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return runSigned(cmd, flags, func(ctx context.Context, env *ledgerEnv, key *keystore.Key) error {
			if err := fn(ctx, env, key.Identity(), args); err != nil {
				return err
			}
			pc, err := env.ledger.Config(ctx)
			if err != nil {
				return err
			}
			return writeOutput(cmd, pc)
		})
	}
}

func pauseCommand(flags *globalFlags, paused bool) *cobra.Command {
	use, short := "pause", "Pause attestation creation and minting (admin only)"
	if !paused {
		use, short = "unpause", "Resume attestation creation and minting (admin only)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: configCommandFunc(flags, func(ctx context.Context, env *ledgerEnv, caller address.Identity, _ []string) error {
			return env.ledger.SetPaused(ctx, caller, paused)
		}),
	}
}

func transferAdminCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-admin <identity>",
		Short: "Hand the admin role to another identity (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: configCommandFunc(flags, func(ctx context.Context, env *ledgerEnv, caller address.Identity, args []string) error {
			newAdmin, err := address.ParseIdentity(args[0])
			if err != nil {
				return fmt.Errorf("identity: %w", err)
			}
			return env.ledger.TransferAdmin(ctx, caller, newAdmin)
		}),
	}
}

func registerTreeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "register-tree <tree>",
		Short: "Register the external tree for batched certificates (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: configCommandFunc(flags, func(ctx context.Context, env *ledgerEnv, caller address.Identity, args []string) error {
			tree, err := address.ParseLocation(args[0])
			if err != nil {
				return fmt.Errorf("tree: %w", err)
			}
			return env.ledger.RegisterExternalTree(ctx, caller, tree)
		}),
	}
}

func eventsCommand(flags *globalFlags) *cobra.Command {
	var (
		filter  eventlog.Filter
		evtType string
		hash    string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.Type = event.EventType(evtType)
			if hash != "" {
				contentHash, err := parseHashArg(hash)
				if err != nil {
					return err
				}
				filter.ContentHash = contentHash
			}
			return runLedger(cmd, flags, func(_ context.Context, env *ledgerEnv) error {
				entries, err := env.events.List(filter)
				if err != nil {
					return err
				}
				return writeOutput(cmd, entries)
			})
		},
	}
	cmd.Flags().StringVar(&evtType, "type", "", "only events of this type")
	cmd.Flags().StringVar(&hash, "hash", "", "only events for this content hash")
	cmd.Flags().Uint64Var(&filter.After, "after", 0, "only events after this sequence number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 100, "maximum results")
	cmd.Flags().BoolVar(&filter.Descending, "desc", false, "newest first")
	return cmd
}
