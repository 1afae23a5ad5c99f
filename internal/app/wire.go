package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/sablewallet/sable/internal/blob/s3"
	"github.com/sablewallet/sable/internal/cache/redis"
	"github.com/sablewallet/sable/internal/config"
	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/platform/xrpl"
	"github.com/sablewallet/sable/internal/store/memory"
	"github.com/sablewallet/sable/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	Gateway domain.LedgerGateway

	OfferStore  domain.OfferStore
	BookCache   domain.BookCache // nil without Redis
	LockManager domain.LockManager

	Archiver *s3blob.Archiver // nil without S3
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ledger gateway ---
	gateway, err := xrpl.Dial(ctx, cfg.Network.NodeURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: ledger gateway %s: %w", cfg.Network.NodeURL, err)
	}
	closers = append(closers, func() { _ = gateway.Close() })
	deps.Gateway = gateway

	// --- PostgreSQL, falling back to the in-memory store ---
	if cfg.UsesPostgres() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.OfferStore = postgres.NewOfferStore(pgClient.Pool())
	} else {
		logger.InfoContext(ctx, "postgres not configured, using in-memory offer store")
		deps.OfferStore = memory.NewOfferStore()
	}

	// --- Redis (optional) ---
	if cfg.UsesRedis() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.BookCache = redis.NewBookCache(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
	}

	// --- S3 raw transaction archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), logger)
	}

	return deps, cleanup, nil
}
