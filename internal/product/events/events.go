package events

import (
	"context"
	"time"

	"github.com/tair/eshoplite-products/internal/product/domain"
)

// Event types
const (
	EventTypeProductCreated = "product.created"
	EventTypeProductUpdated = "product.updated"
	EventTypeProductDeleted = "product.deleted"
)

// DefaultTopic receives every product change event
const DefaultTopic = "product-events"

// ProductEvent describes a change to the catalogue
type ProductEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID uint      `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewProductEvent builds an event of eventType for product
func NewProductEvent(eventType string, product *domain.Product) ProductEvent {
	return ProductEvent{
		EventType: eventType,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
	}
}

// Publisher delivers product events
type Publisher interface {
	Publish(ctx context.Context, event ProductEvent) error
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ProductEvent) error { return nil }
