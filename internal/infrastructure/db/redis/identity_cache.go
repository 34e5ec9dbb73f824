package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signet-auth/signet/internal/api/metrics"
	"github.com/signet-auth/signet/internal/core/domain"
	"github.com/signet-auth/signet/internal/core/ports"
)

// IdentityCache is a read-through cache decorator around a CredentialStore.
// FindByKey is served from Redis while the entry is fresh; every mutation
// invalidates the entry before delegating, so a cached identity can be stale
// for at most the TTL. Negative lookups are not cached.
// Key format: identity:<apikey>
type IdentityCache struct {
	inner  ports.CredentialStore
	client *redis.Client
	ttl    time.Duration
}

// NewIdentityCache wraps inner with a Redis cache. TTL must be positive;
// callers that want no caching should use the inner store directly.
func NewIdentityCache(inner ports.CredentialStore, client *redis.Client, ttl time.Duration) *IdentityCache {
	return &IdentityCache{inner: inner, client: client, ttl: ttl}
}

// cachedIdentity is the JSON shape stored in Redis. The secret has to be
// cached too: digest verification needs it on every request.
type cachedIdentity struct {
	Key       string    `json:"key"`
	Secret    string    `json:"secret"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	Roles     []string  `json:"roles"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *IdentityCache) FindByKey(ctx context.Context, key string) (*domain.Identity, error) {
	data, err := c.client.Get(ctx, c.cacheKey(key)).Bytes()
	if err == nil {
		var cached cachedIdentity
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return &domain.Identity{
				Key:       cached.Key,
				Secret:    cached.Secret,
				Email:     cached.Email,
				Enabled:   cached.Enabled,
				Roles:     domain.NewRoleSet(cached.Roles...),
				Version:   cached.Version,
				CreatedAt: cached.CreatedAt,
				UpdatedAt: cached.UpdatedAt,
			}, nil
		}
	}

	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	identity, err := c.inner.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedIdentity{
		Key:       identity.Key,
		Secret:    identity.Secret,
		Email:     identity.Email,
		Enabled:   identity.Enabled,
		Roles:     identity.Roles.Names(),
		Version:   identity.Version,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	})
	if err == nil {
		// Best effort: a failed SET only costs the next lookup a store
		// round-trip.
		_ = c.client.Set(ctx, c.cacheKey(key), payload, c.ttl).Err()
	}
	return identity, nil
}

func (c *IdentityCache) ExistsByKey(ctx context.Context, key string) (bool, error) {
	return c.inner.ExistsByKey(ctx, key)
}

func (c *IdentityCache) Insert(ctx context.Context, identity *domain.Identity) error {
	return c.inner.Insert(ctx, identity)
}

func (c *IdentityCache) Update(ctx context.Context, identity *domain.Identity) error {
	if err := c.invalidate(ctx, identity.Key); err != nil {
		return err
	}
	return c.inner.Update(ctx, identity)
}

func (c *IdentityCache) Delete(ctx context.Context, key string) error {
	if err := c.invalidate(ctx, key); err != nil {
		return err
	}
	return c.inner.Delete(ctx, key)
}

func (c *IdentityCache) All(ctx context.Context) ([]domain.Identity, error) {
	return c.inner.All(ctx)
}

// invalidate drops the cached entry before a write reaches the store.
// Invalidation failures abort the write: proceeding would leave a disabled
// or re-keyed identity authenticating from cache until the TTL expires.
func (c *IdentityCache) invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("invalidate identity cache: %w", err)
	}
	return nil
}

func (c *IdentityCache) cacheKey(key string) string {
	return "identity:" + key
}
