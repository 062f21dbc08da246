package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/parla-backend/internal/platform/logger"
)

// Limiter is a fixed-window counter keyed by caller and window start.
type Limiter interface {
	// Allow counts one hit for key and reports whether it is within limit,
	// plus the time until the current window resets.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	Close() error
}

type LimiterConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Limit    int
	Window   time.Duration
}

type limiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewLimiter(log *logger.Logger, cfg LimiterConfig) (Limiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newLimiter(log, rdb, cfg), nil
}

func newLimiter(log *logger.Logger, rdb *goredis.Client, cfg LimiterConfig) *limiter {
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "parla:ratelimit"
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 30
	}
	return &limiter{
		log:    log.With("service", "RedisLimiter"),
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (l *limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now().UTC()
	start := now.Truncate(l.window)
	retryAfter := start.Add(l.window).Sub(now)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, start.Unix())

	// Hits within one window all set the same absolute deadline.
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireAt(ctx, k, start.Add(l.window+time.Second))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	n := incr.Val()
	if n > l.limit {
		l.log.Debug("Rate limit exceeded", "key", key, "count", n, "limit", l.limit)
		return false, retryAfter, nil
	}
	return true, retryAfter, nil
}

func (l *limiter) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
