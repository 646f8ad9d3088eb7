package session

import (
	"context"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"
)

// Store persists encoded session data by token.
type Store = scs.Store

// redisKeyPrefix namespaces session keys: session:{token}.
const redisKeyPrefix = "session:"

// NewRedisStore keeps sessions under session:{token} with the session's
// expiry as the key TTL.
func NewRedisStore(rdb *redis.Client) Store {
	return goredisstore.NewWithPrefix(rdb, redisKeyPrefix)
}

// NewMemoryStore keeps sessions in process memory. Used when no REDIS_URL is
// configured and in tests. Expired entries are purged every purgeEvery until
// ctx is cancelled; zero disables the purge.
func NewMemoryStore(ctx context.Context, purgeEvery time.Duration) Store {
	m := memstore.NewWithCleanupInterval(purgeEvery)
	if purgeEvery > 0 {
		go func() {
			<-ctx.Done()
			m.StopCleanup()
		}()
	}
	return m
}
