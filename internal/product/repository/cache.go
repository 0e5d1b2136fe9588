package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/pkg/logger"
)

const cacheKeyPrefix = "products:product:"

// CachedProductRepository serves FindByID from Redis and falls back to next.
// Writes go straight to next and evict the cached entry.
type CachedProductRepository struct {
	next   domain.ProductRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedProductRepository wraps next with a Redis read-through cache
func NewCachedProductRepository(next domain.ProductRepository, client *redis.Client, ttl time.Duration) *CachedProductRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProductRepository{next: next, client: client, ttl: ttl}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, id)
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	key := cacheKey(id)

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var product domain.Product
		if jsonErr := json.Unmarshal(cached, &product); jsonErr == nil {
			logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
			return &product, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis trouble must not take reads down with it
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache read failed")
	}

	product, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(product); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			logger.Warn(ctx).Err(setErr).Str("cache_key", key).Msg("Failed to cache product")
		}
	}
	return product, nil
}

func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.next.Update(ctx, product); err != nil {
		return err
	}
	r.evict(ctx, product.ID)
	return nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.next.Create(ctx, product)
}

func (r *CachedProductRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	return r.next.FindAll(ctx, limit, offset)
}

func (r *CachedProductRepository) Search(ctx context.Context, term string, limit, offset int) ([]domain.Product, error) {
	return r.next.Search(ctx, term, limit, offset)
}

func (r *CachedProductRepository) Count(ctx context.Context) (int64, error) {
	return r.next.Count(ctx)
}

func (r *CachedProductRepository) evict(ctx context.Context, id uint) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", id).Msg("Failed to evict cached product")
	}
}
