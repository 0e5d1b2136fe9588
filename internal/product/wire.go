//go:build wireinject
// +build wireinject

package product

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/tair/eshoplite-products/internal/product/delivery/http"
	"github.com/tair/eshoplite-products/internal/product/events"
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, cache CacheOptions, publisher events.Publisher, registerer prometheus.Registerer) (*http.ProductHandler, error) {
	wire.Build(
		RepositorySet,
		CommandSet,
		QuerySet,
		http.NewProductHandlerWithDI,
	)
	return nil, nil
}
