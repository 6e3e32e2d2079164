package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) ModelName() string { return "counting" }

func (p *countingProvider) Dimension() int { return 3 }

func (p *countingProvider) Health(context.Context) error { return nil }

func (p *countingProvider) Generate(_ context.Context, text string, _ string) (*EmbeddingResponse, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("down")
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{float32(len(text)), 0, 1}}}, nil
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", []float32{0.25, -1})
	values, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float32{0.25, -1}, values)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCacheBackendDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	c := NewRedisCache(client, time.Minute)

	c.Set(context.Background(), "k", []float32{1})
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestCachedProviderUsesCache(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, NewMemoryCache(time.Minute))
	ctx := context.Background()

	first, err := p.Generate(ctx, "abc", TaskRetrievalQuery)
	require.NoError(t, err)
	second, err := p.Generate(ctx, "abc", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.Embedding.Values, second.Embedding.Values)

	_, err = p.Generate(ctx, "abc", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{fail: true}
	p := NewCachedProvider(inner, NewMemoryCache(time.Minute))
	ctx := context.Background()

	_, err := p.Generate(ctx, "abc", TaskRetrievalQuery)
	assert.Error(t, err)

	inner.fail = false
	res, err := p.Generate(ctx, "abc", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, float32(3), res.Embedding.Values[0])
	assert.Equal(t, 2, inner.calls)
}
