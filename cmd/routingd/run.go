// Copyright (C) 2025 adrianbrink
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adrianbrink/routing/config"
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/internal/metrics"
	"github.com/adrianbrink/routing/routing"
	"github.com/adrianbrink/routing/transport"
)

var (
	runConfigPath string
	runToken      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a routing overlay node",
	Long: `run loads a routingd config, loads (or generates) the node's
identity, and drives the routing engine until interrupted.

If --token is given, the node bootstraps by dialing that contact; a
node with no token only starts accepting, acting as a fresh seed for
others to bootstrap against.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to the routingd config file (required)")
	runCmd.Flags().StringVar(&runToken, "token", "", "Bootstrap contact token (host:port), or blank to run as a seed")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := buildLogger(cfg)

	full, err := loadOrGenerateIdentity(cfg, log)
	if err != nil {
		return fmt.Errorf("resolving identity: %w", err)
	}

	rcfg := routing.DefaultConfig()
	rcfg.GroupSize = cfg.GroupSize
	rcfg.MaxJoiningNodes = cfg.MaxJoiningNodes
	rcfg.BootstrapRetryDelay = cfg.BootstrapRetryDelay
	if strings.EqualFold(cfg.DirectionPolicy, "enforce") {
		rcfg.DirectionPolicy = routing.DirectionEnforce
	} else {
		rcfg.DirectionPolicy = routing.DirectionLog
	}
	if cfg.AttestationSecretFile != "" {
		secret, err := os.ReadFile(cfg.AttestationSecretFile)
		if err != nil {
			return fmt.Errorf("reading attestation secret: %w", err)
		}
		rcfg.AttestationSecret = secret
	}

	trans := transport.NewWebSocketTransport(log)

	if _, err := trans.StartAccepting(cfg.AcceptPort); err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}
	if err := trans.StartBeacon(cfg.BeaconPort); err != nil {
		log.Warn("failed to start local-subnet beacon", logger.Error(err))
	}

	engine := routing.New(full, trans, rcfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			if err := metrics.StartServer(addr); err != nil {
				log.Error("metrics server stopped", logger.Error(err))
			}
		}()
	}

	go drainEvents(ctx, engine, log)

	if runToken != "" {
		if err := engine.Bootstrap(ctx, runToken, &cfg.BeaconPort); err != nil {
			return fmt.Errorf("bootstrapping: %w", err)
		}
	}

	log.Info("routingd starting",
		logger.String("name", full.Name().String()),
		logger.Int("accept_port", cfg.AcceptPort),
		logger.Int("beacon_port", cfg.BeaconPort),
	)

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("engine stopped: %w", err)
	}
	return nil
}

// drainEvents logs every Event the engine emits upward, since routingd
// has no other consumer for them.
func drainEvents(ctx context.Context, engine *routing.Engine, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-engine.Events():
			if !ok {
				return
			}
			log.Debug("engine event", logger.String("kind", string(ev.Kind)))
		}
	}
}

func buildLogger(cfg *config.Config) logger.Logger {
	level := logger.InfoLevel
	if cfg.Logging != nil {
		switch strings.ToUpper(cfg.Logging.Level) {
		case "DEBUG":
			level = logger.DebugLevel
		case "WARN":
			level = logger.WarnLevel
		case "ERROR":
			level = logger.ErrorLevel
		}
	}
	return logger.NewLogger(os.Stdout, level)
}

// loadOrGenerateIdentity loads cfg.IdentityFile, generating and
// persisting a fresh Ed25519/X25519 identity if none exists yet.
func loadOrGenerateIdentity(cfg *config.Config, log logger.Logger) (*identity.FullId, error) {
	full, err := identity.LoadFromFile(cfg.IdentityFile)
	if err == nil {
		return full, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		log.Warn("identity file unreadable, generating a new one", logger.Error(err))
	}

	signing, err := identity.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	enc, err := identity.GenerateEncryptionKeyPair()
	if err != nil {
		return nil, err
	}

	full = identity.New(
		signing.PrivateKey().(ed25519.PrivateKey),
		signing.PublicKey().(ed25519.PublicKey),
		enc.PublicKey(),
		enc.PrivateKey(),
	)

	if err := identity.SaveToFile(full, cfg.IdentityFile); err != nil {
		log.Warn("failed to persist generated identity", logger.Error(err))
	}
	return full, nil
}
