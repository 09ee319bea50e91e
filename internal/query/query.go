// Package query runs keyed fetches with in-flight deduplication and a
// result cache, the server-side counterpart of a client query hook.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"craftresume-backend-go/internal/cache"
)

// DefaultFetchTimeout bounds a shared fetch once it no longer follows the
// context of the caller that started it.
const DefaultFetchTimeout = 30 * time.Second

// Client owns the cache and the in-flight call table shared by all queries.
type Client struct {
	cache        cache.Cache
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
	group        singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewClient creates a Client. A zero ttl keeps results until invalidated.
func NewClient(c cache.Cache, ttl time.Duration, logger *zap.Logger) *Client {
	return &Client{
		cache:        c,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		logger:       logger,
		generations:  make(map[string]uint64),
	}
}

// Invalidate drops the cached result for key. A fetch already in flight
// for key will not write its result back.
func (c *Client) Invalidate(ctx context.Context, key string) error {
	c.bump(key)
	c.group.Forget(key)
	if err := c.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate query %q: %w", key, err)
	}
	return nil
}

func (c *Client) bump(key string) {
	c.mu.Lock()
	c.generations[key]++
	c.mu.Unlock()
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// FetchFunc loads the value for a query key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Query is a typed view over a Client.
type Query[T any] struct {
	client *Client
}

// New binds T to client.
func New[T any](client *Client) *Query[T] {
	return &Query[T]{client: client}
}

// Get returns the cached value for key, or runs fetch. Concurrent Gets and
// Refetches for the same key share one fetch.
func (q *Query[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	if value, ok := q.cached(ctx, key); ok {
		return value, nil
	}
	return q.run(ctx, key, fetch)
}

// Refetch ignores the cached value and runs fetch.
func (q *Query[T]) Refetch(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	return q.run(ctx, key, fetch)
}

func (q *Query[T]) cached(ctx context.Context, key string) (T, bool) {
	var value T
	raw, ok, err := q.client.cache.Get(ctx, key)
	if err != nil {
		q.client.logger.Warn("Query cache read failed", zap.String("key", key), zap.Error(err))
		return value, false
	}
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		q.client.logger.Warn("Discarding undecodable cached query", zap.String("key", key), zap.Error(err))
		return value, false
	}
	return value, true
}

// run shares one fetch between all callers of key. The fetch runs on a
// context detached from the caller that started it, so a cancelled caller
// only stops its own wait.
func (q *Query[T]) run(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	ch := q.client.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.client.fetchTimeout)
		defer cancel()

		gen := q.client.generation(key)
		value, err := fetch(fetchCtx)
		if err != nil {
			return value, err
		}
		q.store(fetchCtx, key, gen, value)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			q.client.logger.Debug("Query result shared", zap.String("key", key))
		}
		value, _ := res.Val.(T)
		return value, res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (q *Query[T]) store(ctx context.Context, key string, gen uint64, value T) {
	if q.client.generation(key) != gen {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		q.client.logger.Warn("Query result not cacheable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := q.client.cache.Set(ctx, key, raw, q.client.ttl); err != nil {
		q.client.logger.Warn("Query cache write failed", zap.String("key", key), zap.Error(err))
	}
}
