package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/pkg/database"
	"github.com/tair/eshoplite-products/pkg/logger"
)

// SeedProducts is the starter catalogue written into an empty database
var SeedProducts = []domain.Product{
	{Name: "Solar Powered Flashlight", Description: "A fantastic product for outdoor enthusiasts", Price: 19.99, ImageURL: "product1.png"},
	{Name: "Hiking Poles", Description: "Ideal for camping and hiking trips", Price: 24.99, ImageURL: "product2.png"},
	{Name: "Outdoor Rain Jacket", Description: "This product will keep you warm and dry in all weathers", Price: 49.99, ImageURL: "product3.png"},
	{Name: "Survival Kit", Description: "A must-have for any outdoor adventurer", Price: 99.99, ImageURL: "product4.png"},
	{Name: "Outdoor Backpack", Description: "This backpack is perfect for carrying all your outdoor essentials", Price: 39.99, ImageURL: "product5.png"},
	{Name: "Camping Cookware", Description: "This cookware set is ideal for cooking outdoors", Price: 29.99, ImageURL: "product6.png"},
	{Name: "Camping Stove", Description: "This stove is perfect for cooking outdoors", Price: 49.99, ImageURL: "product7.png"},
	{Name: "Camping Lantern", Description: "This lantern is perfect for lighting up your campsite", Price: 19.99, ImageURL: "product8.png"},
	{Name: "Camping Tent", Description: "This tent is perfect for camping trips", Price: 99.99, ImageURL: "product9.png"},
}

// Initializer guarantees the products storage exists
type Initializer struct {
	db   *gorm.DB
	seed []domain.Product
}

// NewInitializer creates an initializer that seeds the default catalogue
func NewInitializer(db *gorm.DB) *Initializer {
	return &Initializer{db: db, seed: SeedProducts}
}

// EnsureCreated creates the products table if it is missing and seeds it
// when it holds no rows. Repeated calls leave existing schema and data alone.
func (i *Initializer) EnsureCreated(ctx context.Context) error {
	if err := database.EnsureCreated(ctx, i.db, &domain.Product{}); err != nil {
		return err
	}

	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		// Unscoped so soft-deleted rows also count as "already seeded"
		if err := tx.Unscoped().Model(&domain.Product{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		if count > 0 || len(i.seed) == 0 {
			logger.Logger.Debug().Int64("products", count).Msg("Products storage already initialized")
			return nil
		}

		products := make([]domain.Product, len(i.seed))
		copy(products, i.seed)
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}

		logger.Logger.Info().Int("products", len(products)).Msg("Seeded products storage")
		return nil
	})
}
