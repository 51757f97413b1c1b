package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every SPACEPORT_ env var that Load and LoadIndexer read.
var allConfigKeys = []string{
	"SPACEPORT_LISTEN_ADDR",
	"SPACEPORT_API_BASE",
	"SPACEPORT_REQUEST_TIMEOUT",
	"SPACEPORT_DISPLAY_TIMEZONE",
	"SPACEPORT_VIEW_TTL",
	"SPACEPORT_VALIDATE_EDITS",
	"SPACEPORT_GITHUB_TOKEN",
	"SPACEPORT_LOG_LEVEL",
	"SPACEPORT_INDEXER_LISTEN_ADDR",
	"SPACEPORT_INDEXER_DB_PATH",
	"SPACEPORT_INDEXER_SECRET_KEY",
}

// isolateConfigEnv saves and unsets all SPACEPORT_ env vars and moves into an
// empty directory so neither the host environment nor a stray .env file leaks
// into the test. t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.APIBase)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "America/Toronto", cfg.DisplayTimezone.String())
	assert.Equal(t, 2*time.Minute, cfg.ViewTTL)
	assert.True(t, cfg.ValidateEdits)
	assert.False(t, cfg.HasGitHubToken())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("SPACEPORT_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("SPACEPORT_API_BASE", "https://indexer.internal:8443/api/v1/")
	t.Setenv("SPACEPORT_REQUEST_TIMEOUT", "3s")
	t.Setenv("SPACEPORT_DISPLAY_TIMEZONE", "UTC")
	t.Setenv("SPACEPORT_VIEW_TTL", "30s")
	t.Setenv("SPACEPORT_VALIDATE_EDITS", "false")
	t.Setenv("SPACEPORT_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("SPACEPORT_LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "https://indexer.internal:8443/api/v1", cfg.APIBase)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.UTC, cfg.DisplayTimezone)
	assert.Equal(t, 30*time.Second, cfg.ViewTTL)
	assert.False(t, cfg.ValidateEdits)
	assert.True(t, cfg.HasGitHubToken())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_RelativeAPIBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1", "http://localhost:8080/api/v1"},
		{"api/v2/", "http://localhost:8080/api/v2"},
		{"http://10.0.0.5:8080", "http://10.0.0.5:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("SPACEPORT_API_BASE", tt.in)

			cfg, err := Load()

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.APIBase)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SPACEPORT_REQUEST_TIMEOUT", "soon"},
		{"SPACEPORT_REQUEST_TIMEOUT", "-1s"},
		{"SPACEPORT_VIEW_TTL", "forever"},
		{"SPACEPORT_VALIDATE_EDITS", "maybe"},
		{"SPACEPORT_DISPLAY_TIMEZONE", "Mars/Olympus_Mons"},
		{"SPACEPORT_LOG_LEVEL", "loud"},
		{"SPACEPORT_API_BASE", "ftp://indexer/api"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolateConfigEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("SPACEPORT_LISTEN_ADDR=0.0.0.0:4000\nSPACEPORT_VIEW_TTL=45s\n"), 0o600))
	t.Setenv("SPACEPORT_VIEW_TTL", "10s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:4000", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.ViewTTL, "process environment wins over .env")
}

func TestLoadIndexer_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := LoadIndexer()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "spaceport-indexer.db", cfg.DBPath)
	assert.Nil(t, cfg.SecretKey)
}

func TestLoadIndexer_SecretKey_Hex(t *testing.T) {
	isolateConfigEnv(t)
	// 64 hex chars = 32 bytes
	t.Setenv("SPACEPORT_INDEXER_SECRET_KEY", "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")

	cfg, err := LoadIndexer()

	require.NoError(t, err)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, byte(0x01), cfg.SecretKey[0])
}

func TestLoadIndexer_SecretKey_Base64(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("SPACEPORT_INDEXER_SECRET_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")

	cfg, err := LoadIndexer()

	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), cfg.SecretKey)
}

func TestLoadIndexer_SecretKey_Invalid(t *testing.T) {
	for _, v := range []string{"deadbeef", "zzzz", "c2hvcnQ="} {
		t.Run(v, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("SPACEPORT_INDEXER_SECRET_KEY", v)

			cfg, err := LoadIndexer()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "SPACEPORT_INDEXER_SECRET_KEY")
		})
	}
}
