// Package config defines the top-level configuration for the sable wallet
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SABLE_* environment variables.
type Config struct {
	Network  NetworkConfig  `toml:"network"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Sync     SyncConfig     `toml:"sync"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// NetworkConfig identifies the ledger network and its node endpoint.
type NetworkConfig struct {
	// Name tags every persisted record; sequence numbers are only unique per
	// account per network.
	Name string `toml:"name"`

	// NodeURL is the WebSocket endpoint of the ledger node.
	NodeURL string `toml:"node_url"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the raw
// transaction archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SyncConfig controls wallet synchronization and analytics defaults.
type SyncConfig struct {
	// Wallets are the addresses synchronized by the periodic sync loop.
	Wallets []string `toml:"wallets"`

	// TxPageLimit is the account_tx page size per sync.
	TxPageLimit int `toml:"tx_page_limit"`

	// Interval between periodic syncs.
	Interval time.Duration `toml:"interval"`

	// LockTTL bounds how long one process may hold a wallet's sync lock.
	LockTTL time.Duration `toml:"lock_ttl"`

	// BookTTL is how long built depth curves stay cached.
	BookTTL time.Duration `toml:"book_ttl"`

	// SlippageTolerance is the default relative tolerance for estimates
	// (0.02 = 2%).
	SlippageTolerance float64 `toml:"slippage_tolerance"`

	// FeeDrops is the flat fee budgeted by the sizing calculator.
	FeeDrops int64 `toml:"fee_drops"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	CORSOrigins  []string      `toml:"cors_origins"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Network: NetworkConfig{
			Name:    "mainnet",
			NodeURL: "wss://xrplcluster.com",
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 8,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 8,
		},
		Sync: SyncConfig{
			TxPageLimit:       200,
			Interval:          30 * time.Second,
			LockTTL:           2 * time.Minute,
			BookTTL:           10 * time.Second,
			SlippageTolerance: 0.02,
			FeeDrops:          12,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var problems []string

	if c.Network.Name == "" {
		problems = append(problems, "network.name is required")
	}
	if c.Network.NodeURL == "" {
		problems = append(problems, "network.node_url is required")
	} else if !strings.HasPrefix(c.Network.NodeURL, "ws://") && !strings.HasPrefix(c.Network.NodeURL, "wss://") {
		problems = append(problems, "network.node_url must be a ws:// or wss:// endpoint")
	}

	switch c.Mode {
	case "serve", "sync":
	default:
		problems = append(problems, fmt.Sprintf("mode %q is not one of serve, sync", c.Mode))
	}

	if c.Sync.TxPageLimit <= 0 {
		problems = append(problems, "sync.tx_page_limit must be positive")
	}
	if c.Sync.SlippageTolerance < 0 || c.Sync.SlippageTolerance >= 1 {
		problems = append(problems, "sync.slippage_tolerance must be in [0, 1)")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			problems = append(problems, "s3.bucket is required when s3.enabled")
		}
		if c.S3.Region == "" {
			problems = append(problems, "s3.region is required when s3.enabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsesPostgres reports whether a database connection is configured; without
// one the in-memory offer store is used.
func (c *Config) UsesPostgres() bool {
	return c.Postgres.DSN != "" || c.Postgres.Host != ""
}

// UsesRedis reports whether a Redis connection is configured.
func (c *Config) UsesRedis() bool {
	return c.Redis.Addr != ""
}
