package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/eshoplite-products/internal/product/domain"
)

type stubRepository struct {
	domain.ProductRepository
	products   []domain.Product
	lastLimit  int
	lastOffset int
	lastTerm   string
}

func (r *stubRepository) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *stubRepository) FindAll(_ context.Context, limit, offset int) ([]domain.Product, error) {
	r.lastLimit, r.lastOffset = limit, offset
	return r.products, nil
}

func (r *stubRepository) Search(_ context.Context, term string, limit, offset int) ([]domain.Product, error) {
	r.lastTerm, r.lastLimit, r.lastOffset = term, limit, offset
	return nil, nil
}

func TestGetProduct(t *testing.T) {
	repo := &stubRepository{products: []domain.Product{{ID: 4, Name: "Survival Kit"}}}
	h := NewGetProductHandler(repo)

	p, err := h.Handle(context.Background(), GetProductQuery{ID: 4})
	require.NoError(t, err)
	assert.Equal(t, "Survival Kit", p.Name)

	_, err = h.Handle(context.Background(), GetProductQuery{ID: 5})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = h.Handle(context.Background(), GetProductQuery{})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestListProductsPaging(t *testing.T) {
	repo := &stubRepository{}
	h := NewListProductsHandler(repo)

	products, err := h.Handle(context.Background(), ListProductsQuery{})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Equal(t, DefaultLimit, repo.lastLimit)

	_, err = h.Handle(context.Background(), ListProductsQuery{Limit: 5000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
}

func TestSearchProducts(t *testing.T) {
	repo := &stubRepository{products: []domain.Product{{ID: 1}}}
	h := NewSearchProductsHandler(repo)

	found, err := h.Handle(context.Background(), SearchProductsQuery{Term: " tent "})
	require.NoError(t, err)
	assert.Equal(t, "tent", repo.lastTerm)
	assert.Empty(t, found)
	assert.NotNil(t, found)

	all, err := h.Handle(context.Background(), SearchProductsQuery{Term: "  "})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
