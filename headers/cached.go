package headers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bsv-blockchain/go-sdk/block"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/go-redis/redis/v8"
	"github.com/go-softwarelab/common/pkg/slogx"
)

// Cached serves headers from Redis and falls back to an upstream Source,
// storing each header the upstream returns. Redis failures count as misses.
type Cached struct {
	logger   *slog.Logger
	client   *redis.Client
	upstream Source
	prefix   string
	ttl      time.Duration
}

// NewRedisClient connects to the Redis instance at url (redis://...).
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// NewCached wraps upstream. Keys are prefix followed by the height; a zero
// ttl keeps entries forever.
func NewCached(logger *slog.Logger, client *redis.Client, upstream Source, prefix string, ttl time.Duration) *Cached {
	return &Cached{
		logger:   slogx.Child(logger, "HeaderCache"),
		client:   client,
		upstream: upstream,
		prefix:   prefix,
		ttl:      ttl,
	}
}

func (c *Cached) key(height uint32) string {
	return c.prefix + strconv.FormatUint(uint64(height), 10)
}

func (c *Cached) HeaderByHeight(ctx context.Context, height uint32) (*block.Header, error) {
	key := c.key(height)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if header, err := block.NewHeaderFromBytes(raw); err == nil {
			return header, nil
		}
	}

	header, err := c.upstream.HeaderByHeight(ctx, height)
	if err != nil {
		return nil, err
	}
	// best effort; the next lookup goes upstream again
	if err := c.client.Set(ctx, key, header.Bytes(), c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache header", "height", height, slogx.Error(err))
	}
	return header, nil
}

func (c *Cached) IsValidRootForHeight(ctx context.Context, root *chainhash.Hash, height uint32) (bool, error) {
	header, err := c.HeaderByHeight(ctx, height)
	if err != nil {
		return false, err
	}
	return header.MerkleRoot.IsEqual(root), nil
}

// CurrentHeight is not cached; the tip moves.
func (c *Cached) CurrentHeight(ctx context.Context) (uint32, error) {
	return c.upstream.CurrentHeight(ctx)
}
