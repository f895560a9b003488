package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oakbridge/mqconnect/pkg/logger"
	"github.com/oakbridge/mqconnect/pkg/mqconn"
	"github.com/oakbridge/mqconnect/pkg/redis"
	"github.com/oakbridge/mqconnect/pkg/resilience"
	goredis "github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "mqconn:params:"

// Cached decorates another ParameterResolver with a Redis-backed lookup
// cache, so repeated startConnection calls for the same brokerId (common
// when many producers/consumers attach to the same destination over the
// process lifetime) skip the underlying resolver's config lookup. Cache
// traffic runs behind a circuit breaker: once Redis starts failing, lookups
// go straight to the inner resolver instead of riding out a timeout per
// startConnection.
type Cached struct {
	inner   mqconn.ParameterResolver
	cache   *redis.Client
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
}

// NewCached wraps inner with a Redis cache. A zero ttl disables expiry.
func NewCached(inner mqconn.ParameterResolver, cache *redis.Client, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("params-cache")),
	}
}

func (c *Cached) Resolve(ctx context.Context, brokerID string) (mqconn.Parameters, error) {
	key := cacheKeyPrefix + brokerID

	var cached []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		raw, err := c.cache.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			// A miss is a healthy cache response, not a breaker failure.
			return nil
		}
		if err != nil {
			return err
		}
		cached = raw
		return nil
	})
	if err == nil && cached != nil {
		var params mqconn.Parameters
		if err := json.Unmarshal(cached, &params); err == nil {
			return params, nil
		}
		logger.L().Warn("mqconn: discarding corrupt cached parameters", "broker", brokerID)
	}

	params, err := c.inner.Resolve(ctx, brokerID)
	if err != nil {
		return mqconn.Parameters{}, err
	}

	if raw, err := json.Marshal(params); err == nil {
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.cache.Set(ctx, key, raw, c.ttl).Err()
		})
		if err != nil {
			logger.L().Warn("mqconn: failed to cache resolved parameters", "broker", brokerID, "err", err)
		}
	}

	return params, nil
}
