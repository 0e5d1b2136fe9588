package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/eshoplite-products/internal/product/domain"
	"github.com/tair/eshoplite-products/internal/product/events"
)

type memoryRepository struct {
	products map[uint]domain.Product
	nextID   uint
	failWith error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{products: map[uint]domain.Product{}, nextID: 1}
}

func (r *memoryRepository) Create(_ context.Context, p *domain.Product) error {
	if r.failWith != nil {
		return r.failWith
	}
	p.ID = r.nextID
	r.nextID++
	r.products[p.ID] = *p
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r *memoryRepository) FindAll(context.Context, int, int) ([]domain.Product, error) {
	return nil, nil
}

func (r *memoryRepository) Search(context.Context, string, int, int) ([]domain.Product, error) {
	return nil, nil
}

func (r *memoryRepository) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id uint) error {
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepository) Count(context.Context) (int64, error) {
	return int64(len(r.products)), nil
}

type recordingPublisher struct {
	events []events.ProductEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.ProductEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func TestCreateProduct(t *testing.T) {
	repo := newMemoryRepository()
	pub := &recordingPublisher{}
	h := NewCreateProductHandler(repo, pub)

	p, err := h.Handle(context.Background(), CreateProductCommand{Name: "  Camping Tent ", Price: 99.99, ImageURL: "product9.png"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.ID)
	assert.Equal(t, "Camping Tent", p.Name)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeProductCreated, pub.events[0].EventType)
	assert.EqualValues(t, 1, pub.events[0].ProductID)
}

func TestCreateProductValidation(t *testing.T) {
	h := NewCreateProductHandler(newMemoryRepository(), events.NopPublisher{})

	_, err := h.Handle(context.Background(), CreateProductCommand{Name: "", Price: -1})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "price")

	_, err = h.Handle(context.Background(), CreateProductCommand{Name: strings.Repeat("x", 201)})
	require.True(t, errors.As(err, &verr))
}

func TestCreateProductPublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	h := NewCreateProductHandler(newMemoryRepository(), pub)

	_, err := h.Handle(context.Background(), CreateProductCommand{Name: "Lantern", Price: 1})
	assert.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestCreateProductRepositoryFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.failWith = errors.New("disk full")
	pub := &recordingPublisher{}

	_, err := NewCreateProductHandler(repo, pub).Handle(context.Background(), CreateProductCommand{Name: "Lantern"})
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, pub.events)
}

func TestUpdateProduct(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Product{Name: "Stove", Price: 10, Description: "old"}))
	pub := &recordingPublisher{}
	h := NewUpdateProductHandler(repo, pub)

	p, err := h.Handle(ctx, UpdateProductCommand{ID: 1, Name: "Camping Stove", Price: 49.99, ImageURL: "product7.png"})
	require.NoError(t, err)
	assert.Equal(t, "Camping Stove", p.Name)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, "product7.png", repo.products[1].ImageURL)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeProductUpdated, pub.events[0].EventType)

	_, err = h.Handle(ctx, UpdateProductCommand{ID: 2, Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = h.Handle(ctx, UpdateProductCommand{ID: 1, Name: "Stove", Price: -5})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDeleteProduct(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Product{Name: "Tent"}))
	pub := &recordingPublisher{}
	h := NewDeleteProductHandler(repo, pub)

	require.NoError(t, h.Handle(ctx, DeleteProductCommand{ID: 1}))
	assert.Empty(t, repo.products)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeProductDeleted, pub.events[0].EventType)

	assert.ErrorIs(t, h.Handle(ctx, DeleteProductCommand{ID: 1}), domain.ErrProductNotFound)

	var verr *domain.ValidationError
	assert.True(t, errors.As(h.Handle(ctx, DeleteProductCommand{}), &verr))
}
