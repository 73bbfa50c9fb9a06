package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisEntry is Entry's wire form: the resolution result as raw JSON plus
// InsertedAt/TTL, which also round-trip; Set additionally uses TTL as the
// Redis key's expiry.
type redisEntry struct {
	Result     json.RawMessage `json:"result"`
	InsertedAt time.Time       `json:"inserted_at"`
	TTL        time.Duration   `json:"ttl"`
}

// RedisCache is an alternative Cache backend for deployments sharing a
// resolver cache across multiple processes, per spec §5's domain stack
// wiring of github.com/go-redis/redis/v8. Expiration is enforced both by
// Redis's own key TTL and by the embedded InsertedAt/TTL fields, so a
// clock-skewed reader still evaluates freshness consistently with
// MemoryCache.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache wraps an existing Redis client. keyPrefix namespaces keys
// (e.g. "trustcore:resolver:") so the cache can share a Redis instance
// with other consumers.
func NewRedisCache(client *redis.Client, keyPrefix string) *RedisCache {
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisCache) key(didURL string) string {
	return c.keyPrefix + didURL
}

func (c *RedisCache) Get(didURL string) (Entry, bool) {
	ctx := context.Background()
	raw, err := c.client.Get(ctx, c.key(didURL)).Bytes()
	if err != nil {
		return Entry{}, false
	}
	var wire redisEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(wire.Result, &entry.Result); err != nil {
		return Entry{}, false
	}
	entry.InsertedAt = wire.InsertedAt
	entry.TTL = wire.TTL
	if entry.expired(time.Now()) {
		return Entry{}, false
	}
	return entry, true
}

func (c *RedisCache) Set(didURL string, entry Entry) {
	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return
	}
	wire := redisEntry{Result: resultJSON, InsertedAt: entry.InsertedAt, TTL: entry.TTL}
	payload, err := json.Marshal(wire)
	if err != nil {
		return
	}
	ctx := context.Background()
	c.client.Set(ctx, c.key(didURL), payload, entry.TTL)
}

func (c *RedisCache) Delete(didURL string) {
	ctx := context.Background()
	c.client.Del(ctx, c.key(didURL))
}

// Sweep is a no-op for RedisCache: Redis's own key TTL already reclaims
// expired entries, satisfying spec §4.5's eviction requirement without a
// separate periodic pass.
func (c *RedisCache) Sweep() int {
	return 0
}
