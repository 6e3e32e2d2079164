package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores vectors by key. Misses and backend errors both report ok=false.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, values []float32)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "embedding:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var values []float32
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}
	return values, true
}

func (c *RedisCache) Set(ctx context.Context, key string, values []float32) {
	raw, err := json.Marshal(values)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

// MemoryCache keeps vectors in process; used when no redis is configured.
type MemoryCache struct {
	cache *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: cache.New(ttl, 10*time.Minute)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool) {
	if x, found := c.cache.Get(key); found {
		return x.([]float32), true
	}
	return nil, false
}

func (c *MemoryCache) Set(_ context.Context, key string, values []float32) {
	c.cache.Set(key, values, cache.DefaultExpiration)
}

// CachedProvider puts a Cache in front of another provider. Only successful
// responses are stored.
type CachedProvider struct {
	next  EmbeddingProvider
	cache Cache
}

var _ EmbeddingProvider = &CachedProvider{}

func NewCachedProvider(next EmbeddingProvider, c Cache) *CachedProvider {
	return &CachedProvider{next: next, cache: c}
}

func (p *CachedProvider) ModelName() string { return p.next.ModelName() }

func (p *CachedProvider) Dimension() int { return p.next.Dimension() }

func (p *CachedProvider) Health(ctx context.Context) error { return p.next.Health(ctx) }

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := CacheKey(p.next.ModelName(), taskType, text)
	if values, ok := p.cache.Get(ctx, key); ok && len(values) == p.next.Dimension() {
		return &EmbeddingResponse{
			Embedding: EmbeddingResponseEmbedding{Values: values},
			Model:     p.next.ModelName(),
		}, nil
	}

	res, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("embedding provider returned no response")
	}

	p.cache.Set(ctx, key, res.Embedding.Values)
	return res, nil
}

func CacheKey(model, taskType, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + taskType + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
