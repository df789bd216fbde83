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

// Package config loads and defaults the routing engine's runtime
// configuration: table/admission sizing, network ports, filter/cache
// TTLs, and the ambient logging/metrics sub-configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a routingd node.
type Config struct {
	Environment string `yaml:"environment" json:"environment"`

	GroupSize       int `yaml:"group_size" json:"group_size"`
	MaxJoiningNodes int `yaml:"max_joining_nodes" json:"max_joining_nodes"`

	BeaconPort int `yaml:"beacon_port" json:"beacon_port"`
	AcceptPort int `yaml:"accept_port" json:"accept_port"`

	SignedMessageFilterTTL time.Duration `yaml:"signed_message_filter_ttl" json:"signed_message_filter_ttl"`
	ConnectionFilterTTL    time.Duration `yaml:"connection_filter_ttl" json:"connection_filter_ttl"`
	GroupMsgFilterTTL      time.Duration `yaml:"group_msg_filter_ttl" json:"group_msg_filter_ttl"`
	IdentityCacheTTL       time.Duration `yaml:"identity_cache_ttl" json:"identity_cache_ttl"`
	DataCacheTTL           time.Duration `yaml:"data_cache_ttl" json:"data_cache_ttl"`

	BootstrapRetryDelay time.Duration `yaml:"bootstrap_retry_delay" json:"bootstrap_retry_delay"`

	// DirectionPolicy is "log" (default) or "enforce" — see
	// routing.DirectionPolicy for what each does.
	DirectionPolicy string `yaml:"direction_policy" json:"direction_policy"`

	// AttestationSecretFile, if set, points at a file holding the HMAC
	// secret used to sign/verify JWT quorum attestations (opt-in).
	AttestationSecretFile string `yaml:"attestation_secret_file" json:"attestation_secret_file"`

	// IdentityFile is where the node's FullId key material is persisted
	// between runs, in the JSON form keygen/run use.
	IdentityFile string `yaml:"identity_file" json:"identity_file"`

	// ContactsFile names a newline-separated list of bootstrap tokens.
	// It is loaded and saved with the rest of the config, but `routingd
	// run` does not read it: it bootstraps only from its --token flag.
	ContactsFile string `yaml:"contacts_file" json:"contacts_file"`

	Logging *LoggingConfig `yaml:"logging" json:"logging"`
	Metrics *MetricsConfig `yaml:"metrics" json:"metrics"`
}

// LoggingConfig mirrors the teacher's LoggingConfig shape.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig mirrors the teacher's MetricsConfig shape.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile reads path, parsing as YAML and falling back to JSON on
// failure, applying an optional .env overlay first (for local
// development secrets/overrides, as in the teacher), then defaulting
// any unset field.
func LoadFromFile(path string) (*Config, error) {
	// Best-effort: an absent .env is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parsing file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing file: %w", err)
	}
	return nil
}

// Default returns a Config populated entirely with defaults.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.GroupSize == 0 {
		cfg.GroupSize = 8
	}
	if cfg.MaxJoiningNodes == 0 {
		cfg.MaxJoiningNodes = 1
	}
	if cfg.BeaconPort == 0 {
		cfg.BeaconPort = 5484
	}
	if cfg.AcceptPort == 0 {
		cfg.AcceptPort = 5483
	}
	if cfg.SignedMessageFilterTTL == 0 {
		cfg.SignedMessageFilterTTL = 20 * time.Minute
	}
	if cfg.ConnectionFilterTTL == 0 {
		cfg.ConnectionFilterTTL = 20 * time.Second
	}
	if cfg.GroupMsgFilterTTL == 0 {
		cfg.GroupMsgFilterTTL = 20 * time.Minute
	}
	if cfg.IdentityCacheTTL == 0 {
		cfg.IdentityCacheTTL = 10 * time.Minute
	}
	if cfg.DataCacheTTL == 0 {
		cfg.DataCacheTTL = 10 * time.Minute
	}
	if cfg.BootstrapRetryDelay == 0 {
		cfg.BootstrapRetryDelay = 5 * time.Second
	}
	if cfg.DirectionPolicy == "" {
		cfg.DirectionPolicy = "log"
	}
	if cfg.IdentityFile == "" {
		cfg.IdentityFile = "routingd-identity.json"
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
