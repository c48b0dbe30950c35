package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-review/internal/chess"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 24 * time.Hour

// CachedProvider memoises another provider in redis, keyed by the
// position without its move counters.
type CachedProvider struct {
	next   Provider
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

type CacheOptions struct {
	TTL time.Duration
	// Namespace separates providers sharing one redis, e.g. "stockfish:d14:l3".
	Namespace string
}

func NewCachedProvider(next Provider, rdb *redis.Client, opts CacheOptions, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	prefix := "review:analysis:"
	if ns := strings.TrimSpace(opts.Namespace); ns != "" {
		prefix += ns + ":"
	}
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *CachedProvider) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	key := c.key(req.Position)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Evaluation
		jerr := json.Unmarshal(raw, &cached)
		if jerr == nil {
			return cached, nil
		}
		c.logger.Warn("analysis_cache_decode", zap.String("key", key), zap.Error(jerr))
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return Evaluation{}, ctx.Err()
	default:
		// A broken cache must not hide the analysis.
		c.logger.Warn("analysis_cache_get", zap.String("key", key), zap.Error(err))
	}

	eval, err := c.next.Evaluate(ctx, req)
	if err != nil {
		return Evaluation{}, err
	}
	if payload, jerr := json.Marshal(&eval); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("analysis_cache_set", zap.String("key", key), zap.Error(serr))
		}
	}
	return eval, nil
}

func (c *CachedProvider) key(pos chess.Position) string {
	return c.prefix + pos.Key()
}

// OpenRedis connects to a redis:// or rediss:// URL and pings it.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redisOptions(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func redisOptions(rawURL string) (*redis.Options, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return opts, nil
}
