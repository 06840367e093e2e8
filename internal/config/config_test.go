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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/attest/compression"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFullStruct(t *testing.T) {
	path := writeConfig(t, `
databasePath: "/var/lib/attest"
keyFile: "admin.skey"
bindAddr: "127.0.0.1"
compressionCodec: "lz4"
shutdownTimeout: "10s"
apiPort: 9000
metricsPort: 9001
badgerBlockCacheSize: 8388608
badgerIndexCacheSize: 4194304
tracing: true
tracingStdout: true
`)
	expected := &Config{
		DatabasePath:         "/var/lib/attest",
		BlobPlugin:           DefaultBlobPlugin,
		MetadataPlugin:       DefaultMetadataPlugin,
		KeyFile:              "admin.skey",
		BindAddr:             "127.0.0.1",
		CompressionCodec:     "lz4",
		ShutdownTimeout:      "10s",
		ApiPort:              9000,
		MetricsPort:          9001,
		BadgerBlockCacheSize: 8388608,
		BadgerIndexCacheSize: 4194304,
		Tracing:              true,
		TracingStdout:        true,
	}
	actual, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
	assert.Equal(t, compression.CodecLZ4, actual.Codec())
	timeout, err := actual.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
	assert.Same(t, actual, GetConfig())
}

func TestLoadConfigSection(t *testing.T) {
	path := writeConfig(t, `
config:
  apiPort: 7000
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, ".attest", cfg.DatabasePath)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `apiPort: 7000`)
	t.Setenv("ATTEST_API_PORT", "7500")
	t.Setenv("ATTEST_DATABASE_PATH", "/tmp/attest-env")
	t.Setenv("ATTEST_DATABASE_BLOB_PLUGIN", "badger")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(7500), cfg.ApiPort)
	assert.Equal(t, "/tmp/attest-env", cfg.DatabasePath)
}

func TestLoadInvalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `compressionCodec: "brotli"`))
	require.ErrorIs(t, err, compression.ErrUnknownCodec)

	_, err = LoadConfig(writeConfig(t, `shutdownTimeout: "soon"`))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `apiPort: [1, 2]`))
	require.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
