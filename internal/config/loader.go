package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SABLE_* environment variable overrides, and
// returns the final Config. The caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SABLE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Network ──
	setStr(&cfg.Network.Name, "SABLE_NETWORK_NAME")
	setStr(&cfg.Network.NodeURL, "SABLE_NETWORK_NODE_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SABLE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SABLE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SABLE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SABLE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SABLE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SABLE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SABLE_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "SABLE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SABLE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SABLE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SABLE_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "SABLE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SABLE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SABLE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SABLE_S3_REGION")
	setStr(&cfg.S3.Bucket, "SABLE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SABLE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SABLE_S3_SECRET_KEY")

	// ── Sync ──
	if v := os.Getenv("SABLE_SYNC_WALLETS"); v != "" {
		cfg.Sync.Wallets = splitAndTrim(v)
	}
	setInt(&cfg.Sync.TxPageLimit, "SABLE_SYNC_TX_PAGE_LIMIT")
	setDuration(&cfg.Sync.Interval, "SABLE_SYNC_INTERVAL")
	setFloat(&cfg.Sync.SlippageTolerance, "SABLE_SYNC_SLIPPAGE_TOLERANCE")

	// ── Server ──
	setStr(&cfg.Server.Addr, "SABLE_SERVER_ADDR")
	if v := os.Getenv("SABLE_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitAndTrim(v)
	}

	// ── Misc ──
	setStr(&cfg.Mode, "SABLE_MODE")
	setStr(&cfg.LogLevel, "SABLE_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
