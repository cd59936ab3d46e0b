package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	nutrientCacheTTL = 7 * 24 * time.Hour

	// Misses are cached too so a hopeless ingredient ("to taste") does not
	// hammer the upstream API, but with a shorter TTL.
	nutrientMissTTL = 6 * time.Hour

	nutrientMissSentinel = "__miss__"
)

// CachedNutrientLookup memoizes another NutrientLookup in Redis. It is owned
// by the caller and injected; the estimator itself stays cache-free.
type CachedNutrientLookup struct {
	next  NutrientLookup
	redis *redis.Client
}

// NewCachedNutrientLookup creates a new CachedNutrientLookup instance
func NewCachedNutrientLookup(next NutrientLookup, redisClient *redis.Client) *CachedNutrientLookup {
	return &CachedNutrientLookup{
		next:  next,
		redis: redisClient,
	}
}

// LookupNutrients serves from Redis when possible and falls through to the
// wrapped lookup otherwise. Cache errors degrade to the wrapped lookup.
func (c *CachedNutrientLookup) LookupNutrients(ctx context.Context, name string) (*NutrientsPer100g, error) {
	key := fmt.Sprintf("nutrients:%s", strings.ToLower(strings.TrimSpace(name)))

	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		if string(data) == nutrientMissSentinel {
			return nil, ErrNutrientNotFound
		}
		var cached NutrientsPer100g
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	nutrients, err := c.next.LookupNutrients(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNutrientNotFound) {
			c.redis.Set(ctx, key, nutrientMissSentinel, nutrientMissTTL)
		}
		return nil, err
	}

	if data, err := json.Marshal(nutrients); err == nil {
		c.redis.Set(ctx, key, data, nutrientCacheTTL)
	}

	return nutrients, nil
}
