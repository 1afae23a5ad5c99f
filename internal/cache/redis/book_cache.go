package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sablewallet/sable/internal/domain"
)

// BookCache implements domain.BookCache by storing built depth curves as
// JSON blobs with a TTL.
//
// Key schema:
//
//	depth:{base}/{baseIssuer}:{quote}/{quoteIssuer}:{side}
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func depthKey(pair domain.TradingPair, side domain.BookSide) string {
	return fmt.Sprintf("depth:%s/%s:%s/%s:%s",
		pair.Base.Currency, pair.Base.Issuer,
		pair.Quote.Currency, pair.Quote.Issuer,
		side,
	)
}

// SetDepth stores a depth curve for the given TTL.
func (bc *BookCache) SetDepth(ctx context.Context, pair domain.TradingPair, side domain.BookSide, depth domain.Depth, ttl time.Duration) error {
	data, err := json.Marshal(depth)
	if err != nil {
		return fmt.Errorf("redis: marshal depth: %w", err)
	}
	if err := bc.rdb.Set(ctx, depthKey(pair, side), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set depth %s: %w", depthKey(pair, side), err)
	}
	return nil
}

// GetDepth returns the cached depth curve, or domain.ErrNotFound when the
// key is missing or expired.
func (bc *BookCache) GetDepth(ctx context.Context, pair domain.TradingPair, side domain.BookSide) (domain.Depth, error) {
	data, err := bc.rdb.Get(ctx, depthKey(pair, side)).Bytes()
	if err == redis.Nil {
		return domain.Depth{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Depth{}, fmt.Errorf("redis: get depth: %w", err)
	}

	var depth domain.Depth
	if err := json.Unmarshal(data, &depth); err != nil {
		return domain.Depth{}, fmt.Errorf("redis: unmarshal depth: %w", err)
	}
	return depth, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
