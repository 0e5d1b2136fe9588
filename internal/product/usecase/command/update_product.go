package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/events"
)

// UpdateProductCommand replaces the editable fields of a product
type UpdateProductCommand struct {
	ID          uint
	Name        string
	Description string
	Price       float64
	ImageURL    string
}

// UpdateProductHandler handles product update command
type UpdateProductHandler struct {
	repo      domain.ProductRepository
	publisher events.Publisher
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(repo domain.ProductRepository, publisher events.Publisher) *UpdateProductHandler {
	return &UpdateProductHandler{repo: repo, publisher: publisher}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	if cmd.ID == 0 {
		return nil, domain.NewValidationError("id", "invalid product id")
	}

	name := strings.TrimSpace(cmd.Name)
	if verr := validate(name, cmd.Price); verr != nil {
		return nil, verr
	}

	product, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	product.Name = name
	product.Description = cmd.Description
	product.Price = cmd.Price
	product.ImageURL = cmd.ImageURL

	if err := h.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	publish(ctx, h.publisher, events.EventTypeProductUpdated, product)
	return product, nil
}
