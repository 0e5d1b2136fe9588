package product

import (
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/repository"
	"github.com/tair/eshoplite-products/internal/product/usecase/command"
	"github.com/tair/eshoplite-products/internal/product/usecase/query"
)

// CacheOptions configures the optional Redis read-through cache.
// A nil Client disables caching.
type CacheOptions struct {
	Client *redis.Client
	TTL    time.Duration
}

// ProvideProductRepository composes the GORM repository with tracing and, when
// configured, the Redis cache in front of it
func ProvideProductRepository(db *gorm.DB, cache CacheOptions) domain.ProductRepository {
	var repo domain.ProductRepository = repository.NewTracingProductRepository(
		repository.NewGormProductRepository(db),
	)
	if cache.Client != nil {
		repo = repository.NewCachedProductRepository(repo, cache.Client, cache.TTL)
	}
	return repo
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideProductRepository,
)

var CommandSet = wire.NewSet(
	command.NewCreateProductHandler,
	command.NewUpdateProductHandler,
	command.NewDeleteProductHandler,
)

var QuerySet = wire.NewSet(
	query.NewGetProductHandler,
	query.NewListProductsHandler,
	query.NewSearchProductsHandler,
)
