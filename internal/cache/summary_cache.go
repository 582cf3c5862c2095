// Package cache is the process-wide read-through cache for computed revenue
// summaries. The invalidation contract is explicit: after any financial
// mutation for guest G, InvalidateGuest(G) drops G's summary key and bumps
// the portfolio version, which orphans every portfolio entry at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gala-ops/internal/config"
	"gala-ops/pkg/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SummaryCache caches per-guest summaries and portfolio totals in Redis
type SummaryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis and returns the summary cache
func New(cfg *config.RedisConfig, logger *zap.Logger) (*SummaryCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", cfg.Addr))

	return &SummaryCache{
		rdb:    rdb,
		ttl:    time.Duration(cfg.SummaryTTLSeconds) * time.Second,
		logger: logger,
	}, nil
}

// Client exposes the underlying Redis client for the mutation lock
func (c *SummaryCache) Client() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *SummaryCache) Close() error {
	return c.rdb.Close()
}

func guestKey(guestID string) string {
	return "summary:guest:" + guestID
}

// GetSummary returns the cached summary for a guest, if present. Cache
// failures degrade to a miss; the caller recomputes.
func (c *SummaryCache) GetSummary(ctx context.Context, guestID string) (*models.EffectiveRevenueSummary, bool) {
	raw, err := c.rdb.Get(ctx, guestKey(guestID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("summary cache read failed", zap.String("guest_id", guestID), zap.Error(err))
		}
		return nil, false
	}

	var summary models.EffectiveRevenueSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn("summary cache entry corrupt, dropping", zap.String("guest_id", guestID), zap.Error(err))
		c.rdb.Del(ctx, guestKey(guestID))
		return nil, false
	}

	return &summary, true
}

// SetSummary stores a freshly computed guest summary
func (c *SummaryCache) SetSummary(ctx context.Context, guestID string, summary *models.EffectiveRevenueSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn("failed to marshal summary for cache", zap.Error(err))
		return
	}

	if err := c.rdb.Set(ctx, guestKey(guestID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed", zap.String("guest_id", guestID), zap.Error(err))
	}
}

// portfolioVersion reads the current portfolio namespace version. Portfolio
// entries embed the version in their key, so bumping it invalidates them all
// without scanning.
func (c *SummaryCache) portfolioVersion(ctx context.Context) int64 {
	v, err := c.rdb.Get(ctx, "portfolio:version").Int64()
	if err != nil {
		return 0
	}
	return v
}

func (c *SummaryCache) portfolioKey(ctx context.Context, filterKey string) string {
	return fmt.Sprintf("portfolio:%d:%s", c.portfolioVersion(ctx), filterKey)
}

// GetPortfolio returns cached portfolio totals for a filter, if present
func (c *SummaryCache) GetPortfolio(ctx context.Context, filterKey string) (*models.PortfolioTotals, bool) {
	raw, err := c.rdb.Get(ctx, c.portfolioKey(ctx, filterKey)).Bytes()
	if err != nil {
		return nil, false
	}

	var totals models.PortfolioTotals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, false
	}

	return &totals, true
}

// SetPortfolio stores freshly computed portfolio totals for a filter
func (c *SummaryCache) SetPortfolio(ctx context.Context, filterKey string, totals *models.PortfolioTotals) {
	raw, err := json.Marshal(totals)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, c.portfolioKey(ctx, filterKey), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("portfolio cache write failed", zap.Error(err))
	}
}

// InvalidateGuest drops the guest's summary and every portfolio entry. Called
// after each financial mutation, before the caller returns.
func (c *SummaryCache) InvalidateGuest(ctx context.Context, guestID string) {
	if err := c.rdb.Del(ctx, guestKey(guestID)).Err(); err != nil {
		c.logger.Warn("summary cache invalidation failed", zap.String("guest_id", guestID), zap.Error(err))
	}

	if err := c.rdb.Incr(ctx, "portfolio:version").Err(); err != nil {
		c.logger.Warn("portfolio cache invalidation failed", zap.Error(err))
	}

	c.logger.Debug("cache invalidated", zap.String("guest_id", guestID))
}
