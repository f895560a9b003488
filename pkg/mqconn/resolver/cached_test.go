package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakbridge/mqconnect/pkg/mqconn"
	"github.com/oakbridge/mqconnect/pkg/mqconn/resolver"
	"github.com/oakbridge/mqconnect/pkg/redis"
	"github.com/oakbridge/mqconnect/pkg/test"
)

// countingResolver counts how often the underlying lookup runs.
type countingResolver struct {
	inner mqconn.ParameterResolver
	calls int
}

func (r *countingResolver) Resolve(ctx context.Context, brokerID string) (mqconn.Parameters, error) {
	r.calls++
	return r.inner.Resolve(ctx, brokerID)
}

func TestCachedResolverSkipsInnerOnHit(t *testing.T) {
	test.RequireDocker(t)

	addr, cleanup := test.StartRedis(t)
	defer cleanup()

	client, err := redis.New(redis.Config{Addr: trimScheme(addr)})
	require.NoError(t, err)

	inner := &countingResolver{
		inner: resolver.NewStatic(map[string]mqconn.Parameters{
			"mardirac3.in2p3.fr": {Host: "mardirac3.in2p3.fr", Port: 5672},
		}),
	}
	cached := resolver.NewCached(inner, client, time.Minute)

	ctx := context.Background()
	first, err := cached.Resolve(ctx, "mardirac3.in2p3.fr")
	require.NoError(t, err)
	second, err := cached.Resolve(ctx, "mardirac3.in2p3.fr")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls, "second lookup should be served from cache")
}

func TestCachedResolverPropagatesInnerFailure(t *testing.T) {
	test.RequireDocker(t)

	addr, cleanup := test.StartRedis(t)
	defer cleanup()

	client, err := redis.New(redis.Config{Addr: trimScheme(addr)})
	require.NoError(t, err)

	cached := resolver.NewCached(resolver.NewStatic(nil), client, time.Minute)

	_, err = cached.Resolve(context.Background(), "unknown.example.org")
	require.Error(t, err)
}

// trimScheme strips the redis:// prefix testcontainers puts on its
// connection string; go-redis options take a bare host:port.
func trimScheme(connStr string) string {
	const prefix = "redis://"
	if len(connStr) > len(prefix) && connStr[:len(prefix)] == prefix {
		return connStr[len(prefix):]
	}
	return connStr
}
