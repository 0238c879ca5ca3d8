package offers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// CachedAggregator wraps the aggregator with a cache-aside Redis layer keyed
// by normalized query and zip code. Redis being down or absent degrades to
// straight aggregation; it never fails a query.
type CachedAggregator struct {
	inner  *Aggregator
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedAggregator(inner *Aggregator, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedAggregator{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedAggregator) Offers(ctx context.Context, rawQuery string, q Query) ([]entity.Offer, string, error) {
	if c.client == nil {
		return c.inner.Offers(ctx, rawQuery, q)
	}

	term := NormalizeQuery(rawQuery)
	key := fmt.Sprintf("offers:%s:%s", term, q.ZipCode)

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached []entity.Offer
		if err := json.Unmarshal(payload, &cached); err == nil {
			c.logger.Debug("offers.cache.hit", "key", key)
			return cached, term, nil
		}
		// Unreadable entry; fall through and overwrite it.
	} else if err != redis.Nil {
		c.logger.Warn("offers.cache.get_failed", "key", key, "error", err)
	}

	offers, term, err := c.inner.Offers(ctx, rawQuery, q)
	if err != nil {
		return nil, term, err
	}

	if payload, err := json.Marshal(offers); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("offers.cache.set_failed", "key", key, "error", err)
		}
	}
	return offers, term, nil
}
