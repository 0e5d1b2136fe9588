package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/events"
)

// CreateProductCommand represents the command to create a new product
type CreateProductCommand struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
}

// CreateProductHandler handles product creation command
type CreateProductHandler struct {
	repo      domain.ProductRepository
	publisher events.Publisher
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository, publisher events.Publisher) *CreateProductHandler {
	return &CreateProductHandler{repo: repo, publisher: publisher}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if verr := validate(name, cmd.Price); verr != nil {
		return nil, verr
	}

	product := &domain.Product{
		Name:        name,
		Description: cmd.Description,
		Price:       cmd.Price,
		ImageURL:    cmd.ImageURL,
	}

	if err := h.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	publish(ctx, h.publisher, events.EventTypeProductCreated, product)
	return product, nil
}
