// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	RagicAPIKey   string
	RagicBaseURL  string
	RegistryPath  string
	DBPath        string
	ListenAddr    string
	WebhookToken  string
	WebhookSecret string
	IndexKey      []byte
	SyncInterval  time.Duration
	HTTPTimeout   time.Duration
}

// HasWebhookAuth returns true when at least one webhook authentication method
// (shared token or HMAC secret) is configured. The composition root refuses to
// start without one so the webhook endpoint is never left open.
func (c *Config) HasWebhookAuth() bool {
	return c.WebhookToken != "" || c.WebhookSecret != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// Required: RAGICSYNC_API_KEY, RAGICSYNC_INDEX_KEY (64 hex chars), and at least one
// of RAGICSYNC_WEBHOOK_TOKEN / RAGICSYNC_WEBHOOK_SECRET.
// Optional variables with defaults: RAGICSYNC_BASE_URL (https://ap13.ragic.com),
// RAGICSYNC_REGISTRY_PATH (ragic_registry.json), RAGICSYNC_DB_PATH (ragicsync.db),
// RAGICSYNC_LISTEN_ADDR (127.0.0.1:8080), RAGICSYNC_SYNC_INTERVAL (0 = sync on
// startup and webhooks only), RAGICSYNC_HTTP_TIMEOUT (30s).
func Load() (*Config, error) {
	apiKey := os.Getenv("RAGICSYNC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RAGICSYNC_API_KEY is required")
	}

	baseURL := "https://ap13.ragic.com"
	if v, ok := os.LookupEnv("RAGICSYNC_BASE_URL"); ok && v != "" {
		baseURL = v
	}
	baseURL = strings.TrimRight(baseURL, "/")

	registryPath := "ragic_registry.json"
	if v, ok := os.LookupEnv("RAGICSYNC_REGISTRY_PATH"); ok && v != "" {
		registryPath = v
	}

	dbPath := "ragicsync.db"
	if v, ok := os.LookupEnv("RAGICSYNC_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("RAGICSYNC_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	indexKeyHex := os.Getenv("RAGICSYNC_INDEX_KEY")
	if indexKeyHex == "" {
		return nil, fmt.Errorf("RAGICSYNC_INDEX_KEY is required")
	}
	indexKey, err := hex.DecodeString(indexKeyHex)
	if err != nil {
		return nil, fmt.Errorf("RAGICSYNC_INDEX_KEY is not valid hex: %w", err)
	}
	if len(indexKey) < 32 {
		return nil, fmt.Errorf("RAGICSYNC_INDEX_KEY must be at least 32 bytes (64 hex chars), got %d", len(indexKey))
	}

	token := os.Getenv("RAGICSYNC_WEBHOOK_TOKEN")
	secret := os.Getenv("RAGICSYNC_WEBHOOK_SECRET")

	syncInterval := time.Duration(0)
	if v, ok := os.LookupEnv("RAGICSYNC_SYNC_INTERVAL"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("RAGICSYNC_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("RAGICSYNC_SYNC_INTERVAL must not be negative, got %q", v)
		}
		syncInterval = parsed
	}

	httpTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("RAGICSYNC_HTTP_TIMEOUT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("RAGICSYNC_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		httpTimeout = parsed
	}

	cfg := &Config{
		RagicAPIKey:   apiKey,
		RagicBaseURL:  baseURL,
		RegistryPath:  registryPath,
		DBPath:        dbPath,
		ListenAddr:    listenAddr,
		WebhookToken:  token,
		WebhookSecret: secret,
		IndexKey:      indexKey,
		SyncInterval:  syncInterval,
		HTTPTimeout:   httpTimeout,
	}
	if !cfg.HasWebhookAuth() {
		return nil, fmt.Errorf("at least one of RAGICSYNC_WEBHOOK_TOKEN or RAGICSYNC_WEBHOOK_SECRET is required")
	}
	return cfg, nil
}
