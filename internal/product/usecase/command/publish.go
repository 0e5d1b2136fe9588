package command

import (
	"context"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/events"
	"github.com/tair/eshoplite-products/pkg/logger"
)

// publish emits a change event; delivery failures never fail the command
func publish(ctx context.Context, pub events.Publisher, eventType string, product *domain.Product) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, events.NewProductEvent(eventType, product)); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("event_type", eventType).
			Uint("product_id", product.ID).
			Msg("Failed to publish product event")
	}
}

// validate applies the rules shared by create and update
func validate(name string, price float64) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if name == "" {
		verr.Add("name", "product name is required")
	}
	if len(name) > 200 {
		verr.Add("name", "product name must be at most 200 characters")
	}
	if price < 0 {
		verr.Add("price", "price cannot be negative")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
