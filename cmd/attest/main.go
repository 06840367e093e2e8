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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/blinklabs-io/attest/internal/config"
	"github.com/blinklabs-io/attest/internal/version"
)

const (
	programName = "attest"
)

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...),
		"component", programName,
	)
}

type globalFlags struct {
	debug      bool
	configFile string
	keyFile    string
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	if debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	return slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
}

// commonRun configures logging and GOMAXPROCS for long-running commands
func commonRun(flags *globalFlags) (*slog.Logger, error) {
	logger := newLogger(os.Stdout, flags.debug)
	slog.SetDefault(logger)
	// Configure max processes with our logger wrapper, toss undo func
	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		return nil, err
	}
	logger.Info(
		"version: "+version.GetVersionString(),
		"component", programName,
	)
	return logger, nil
}

// writeOutput prints v as indented JSON on the command's output
func writeOutput(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func configFromCmd(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, fmt.Errorf("no config found in context")
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Content attestation ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&flags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&flags.configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		StringVarP(&flags.keyFile, "key", "k", "", "path to signing key file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(flags.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flags.keyFile != "" {
			cfg.KeyFile = flags.keyFile
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(
		keygenCommand(),
		identityCommand(),
		hashCommand(),
		initCommand(flags),
		createCommand(flags),
		showCommand(flags),
		listCommand(flags),
		updateMetadataCommand(flags),
		linkCommand(flags),
		mintCommand(flags),
		verifyCommand(flags),
		compressCommand(flags),
		closeCommand(flags),
		pauseCommand(flags, true),
		pauseCommand(flags, false),
		transferAdminCommand(flags),
		registerTreeCommand(flags),
		eventsCommand(flags),
		serveCommand(flags),
		versionCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// NOTE: we purposely don't display the error, since cobra will have already displayed it
		os.Exit(1)
	}
}
