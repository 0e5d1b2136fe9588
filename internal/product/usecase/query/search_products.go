package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/eshoplite-products/internal/product/domain"
)

// SearchProductsQuery finds products whose name contains Term
type SearchProductsQuery struct {
	Term   string
	Limit  int
	Offset int
}

// SearchProductsHandler handles search products query
type SearchProductsHandler struct {
	repo domain.ProductRepository
}

// NewSearchProductsHandler creates a new search products handler
func NewSearchProductsHandler(repo domain.ProductRepository) *SearchProductsHandler {
	return &SearchProductsHandler{repo: repo}
}

// Handle executes the search; a blank term lists everything
func (h *SearchProductsHandler) Handle(ctx context.Context, query SearchProductsQuery) ([]domain.Product, error) {
	limit, offset := normalizePage(query.Limit, query.Offset)
	term := strings.TrimSpace(query.Term)

	var (
		products []domain.Product
		err      error
	)
	if term == "" {
		products, err = h.repo.FindAll(ctx, limit, offset)
	} else {
		products, err = h.repo.Search(ctx, term, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
