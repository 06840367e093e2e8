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
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/blinklabs-io/attest/api"
)

func serveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			logger, err := commonRun(flags)
			if err != nil {
				return err
			}
			shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
			if err != nil {
				return err
			}

			// Wait for interrupt/termination signal
			signalCtx, signalCtxStop := signal.NotifyContext(
				cmd.Context(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer signalCtxStop()

			if cfg.Tracing {
				stopTracing, err := setupTracing(
					signalCtx,
					cfg.TracingStdout,
					cmd.OutOrStdout(),
				)
				if err != nil {
					return err
				}
				defer func() {
					//nolint:contextcheck
					shutdownCtx, cancel := context.WithTimeout(
						context.Background(),
						shutdownTimeout,
					)
					defer cancel()
					if err := stopTracing(shutdownCtx); err != nil {
						logger.Error("tracing shutdown error", "error", err)
					}
				}()
			}

			env, err := openLedger(cfg, logger, prometheus.DefaultRegisterer)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer func() {
				if err := env.Close(); err != nil {
					logger.Error("ledger close error", "error", err)
				}
			}()

			apiServer := api.New(
				api.Config{
					ListenAddress: fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
				},
				env.ledger,
				env.events,
				logger,
			)
			if err := apiServer.Start(signalCtx); err != nil {
				return err
			}

			// Metrics listener
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())
			metricsServer := &http.Server{
				Addr: fmt.Sprintf(
					"%s:%d",
					cfg.BindAddr,
					cfg.MetricsPort,
				),
				Handler:           metricsMux,
				ReadHeaderTimeout: 60 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			logger.Info(
				"serving prometheus metrics on "+metricsServer.Addr,
				"component", programName,
			)
			errChan := make(chan error, 1)
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil &&
					!errors.Is(err, http.ErrServerClosed) {
					errChan <- fmt.Errorf("metrics listener: %w", err)
				}
			}()

			var runErr error
			select {
			case <-signalCtx.Done():
				logger.Info("signal received, initiating graceful shutdown")
			case runErr = <-errChan:
				logger.Error("server error", "error", runErr)
			}

			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
			if err := apiServer.Stop(shutdownCtx); err != nil {
				logger.Error("API server shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return runErr
		},
	}
}
