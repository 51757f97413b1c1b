// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultAPIOrigin resolves a relative SPACEPORT_API_BASE.
const defaultAPIOrigin = "http://localhost:8080"

// Config holds the console configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	APIBase         string
	RequestTimeout  time.Duration
	DisplayTimezone *time.Location
	ViewTTL         time.Duration
	ValidateEdits   bool
	GitHubToken     string
	LogLevel        slog.Level
}

// HasGitHubToken reports whether the compose probe can authenticate against
// GitHub. Public repositories are still probed without one.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// IndexerConfig holds the reference indexer configuration.
type IndexerConfig struct {
	ListenAddr string
	DBPath     string
	// SecretKey is the 32-byte AES key for credential secrets; nil when unset.
	SecretKey []byte
	LogLevel  slog.Level
}

// Load reads the console configuration. A .env file in the working directory is
// read first; variables already present in the environment win.
// Optional variables with defaults: SPACEPORT_LISTEN_ADDR (127.0.0.1:3000),
// SPACEPORT_API_BASE (/api/v1), SPACEPORT_REQUEST_TIMEOUT (10s),
// SPACEPORT_DISPLAY_TIMEZONE (America/Toronto), SPACEPORT_VIEW_TTL (2m),
// SPACEPORT_VALIDATE_EDITS (true), SPACEPORT_LOG_LEVEL (info).
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	apiBase, err := ResolveAPIBase(stringEnv("SPACEPORT_API_BASE", "/api/v1"))
	if err != nil {
		return nil, err
	}

	timeout, err := durationEnv("SPACEPORT_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	tzName := stringEnv("SPACEPORT_DISPLAY_TIMEZONE", "America/Toronto")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("SPACEPORT_DISPLAY_TIMEZONE has invalid zone %q: %w", tzName, err)
	}

	viewTTL, err := durationEnv("SPACEPORT_VIEW_TTL", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	validateEdits, err := boolEnv("SPACEPORT_VALIDATE_EDITS", true)
	if err != nil {
		return nil, err
	}

	level, err := logLevelEnv("SPACEPORT_LOG_LEVEL")
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:      stringEnv("SPACEPORT_LISTEN_ADDR", "127.0.0.1:3000"),
		APIBase:         apiBase,
		RequestTimeout:  timeout,
		DisplayTimezone: loc,
		ViewTTL:         viewTTL,
		ValidateEdits:   validateEdits,
		GitHubToken:     os.Getenv("SPACEPORT_GITHUB_TOKEN"),
		LogLevel:        level,
	}, nil
}

// LoadIndexer reads the reference indexer configuration.
// SPACEPORT_INDEXER_SECRET_KEY is optional; without it credentials can be
// listed but not saved. When set it must decode (hex or base64) to 32 bytes.
func LoadIndexer() (*IndexerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var key []byte
	if v := os.Getenv("SPACEPORT_INDEXER_SECRET_KEY"); v != "" {
		decoded, err := decodeKey(v)
		if err != nil {
			return nil, fmt.Errorf("SPACEPORT_INDEXER_SECRET_KEY: %w", err)
		}
		key = decoded
	}

	level, err := logLevelEnv("SPACEPORT_LOG_LEVEL")
	if err != nil {
		return nil, err
	}

	return &IndexerConfig{
		ListenAddr: stringEnv("SPACEPORT_INDEXER_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:     stringEnv("SPACEPORT_INDEXER_DB_PATH", "spaceport-indexer.db"),
		SecretKey:  key,
		LogLevel:   level,
	}, nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

// ResolveAPIBase accepts an absolute URL or a path relative to the default
// indexer origin. The result never ends in a slash.
func ResolveAPIBase(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("SPACEPORT_API_BASE has invalid URL %q: %w", raw, err)
	}

	if !u.IsAbs() {
		origin, _ := url.Parse(defaultAPIOrigin)
		if !strings.HasPrefix(u.Path, "/") {
			u.Path = "/" + u.Path
		}
		u = origin.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("SPACEPORT_API_BASE must use http or https, got %q", raw)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func decodeKey(v string) ([]byte, error) {
	const keyLen = 32

	if len(v) == hex.EncodedLen(keyLen) {
		if key, err := hex.DecodeString(v); err == nil {
			return key, nil
		}
	}

	key, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, errors.New("must be 64 hex characters or base64")
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("must decode to %d bytes, got %d", keyLen, len(key))
	}
	return key, nil
}

func stringEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s has invalid boolean %q: %w", key, v, err)
	}
	return parsed, nil
}

func logLevelEnv(key string) (slog.Level, error) {
	var level slog.Level
	v := stringEnv(key, "info")
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("%s has invalid level %q: %w", key, v, err)
	}
	return level, nil
}
