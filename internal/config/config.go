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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/attest/compression"
)

type ctxKey string

const configContextKey ctxKey = "attest.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config *Config `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath     string `yaml:"databasePath"     split_words:"true"`
	BlobPlugin       string `yaml:"blobPlugin"       envconfig:"ATTEST_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin   string `yaml:"metadataPlugin"   envconfig:"ATTEST_DATABASE_METADATA_PLUGIN"`
	KeyFile          string `yaml:"keyFile"          split_words:"true"`
	BindAddr         string `yaml:"bindAddr"         split_words:"true"`
	CompressionCodec string `yaml:"compressionCodec" split_words:"true"`
	ShutdownTimeout  string `yaml:"shutdownTimeout"  split_words:"true"`
	ApiPort          uint   `yaml:"apiPort"          split_words:"true"`
	MetricsPort      uint   `yaml:"metricsPort"      split_words:"true"`
	// Badger cache sizes in bytes (0 = use default)
	BadgerBlockCacheSize uint64 `yaml:"badgerBlockCacheSize" split_words:"true"`
	BadgerIndexCacheSize uint64 `yaml:"badgerIndexCacheSize" split_words:"true"`
	Tracing              bool   `yaml:"tracing"`
	TracingStdout        bool   `yaml:"tracingStdout"        split_words:"true"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:     ".attest",
		BlobPlugin:       DefaultBlobPlugin,
		MetadataPlugin:   DefaultMetadataPlugin,
		BindAddr:         "0.0.0.0",
		CompressionCodec: compression.CodecZstd.String(),
		ShutdownTimeout:  DefaultShutdownTimeout,
		ApiPort:          8080,
		MetricsPort:      12799,
	}
}

var globalConfig = DefaultConfig()

// LoadConfig builds the config from the defaults, the YAML config file and
// ATTEST_* environment variables, in that order. With no path given,
// ~/.attest/attest.yaml and then /etc/attest/attest.yaml are tried
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".attest", "attest.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/attest/attest.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config != nil {
			// Overlay the config section onto the defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			if err := yaml.Unmarshal(configBytes, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("attest", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}

func (c *Config) validate() error {
	if _, err := compression.ParseCodec(c.CompressionCodec); err != nil {
		return fmt.Errorf("invalid compressionCodec: %w", err)
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// ShutdownTimeoutDuration parses ShutdownTimeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	return ret, nil
}

// Codec returns the configured projection compression codec
func (c *Config) Codec() compression.Codec {
	ret, err := compression.ParseCodec(c.CompressionCodec)
	if err != nil {
		return compression.CodecZstd
	}
	return ret
}
