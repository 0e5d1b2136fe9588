package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/events"
)

// DeleteProductCommand represents the command to delete a product
type DeleteProductCommand struct {
	ID uint
}

// DeleteProductHandler handles product deletion command
type DeleteProductHandler struct {
	repo      domain.ProductRepository
	publisher events.Publisher
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(repo domain.ProductRepository, publisher events.Publisher) *DeleteProductHandler {
	return &DeleteProductHandler{repo: repo, publisher: publisher}
}

// Handle executes the delete product command
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	if cmd.ID == 0 {
		return domain.NewValidationError("id", "invalid product id")
	}

	if err := h.repo.Delete(ctx, cmd.ID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	publish(ctx, h.publisher, events.EventTypeProductDeleted, &domain.Product{ID: cmd.ID})
	return nil
}
