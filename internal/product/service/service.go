// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	producterrors "github.com/abgdnv/productsapi/internal/product/errors"
	"github.com/abgdnv/productsapi/internal/product/store"
	"github.com/abgdnv/productsapi/pkg/messaging"
	"github.com/abgdnv/productsapi/pkg/messaging/events"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns all available products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// Create validates the input and adds a new product under a fresh identifier.
	// Returns ErrMissingField or ErrInvalidFormat for a bad name.
	Create(ctx context.Context, input ProductInput) (*ProductDto, error)

	// Rename validates the input and replaces the name of an existing product.
	// Name validation happens before the existence check.
	Rename(ctx context.Context, id int64, input ProductInput) error

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductInput carries the raw request fields. Name is kept raw so that
// presence and type can be checked explicitly.
type ProductInput struct {
	Name json.RawMessage `json:"name"`
}

// UnmarshalJSON matches field keys exactly. "Name" or "NAME" do not count as name.
func (p *ProductInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	p.Name = fields["name"]
	return nil
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time

	createdCounter metric.Int64Counter
	renamedCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	meter := otel.Meter("product-service")
	return &Service{
		repository:     repo,
		publisher:      publisher,
		validate:       validator.New(),
		logger:         logger.With("component", "service"),
		now:            time.Now,
		createdCounter: mustCounter(meter, "products_created", "Total number of created products"),
		renamedCounter: mustCounter(meter, "products_renamed", "Total number of renamed products"),
		deletedCounter: mustCounter(meter, "products_deleted", "Total number of deleted products"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// FindAll retrieves all products and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i := range products {
		productDTOs[i] = *toDto(&products[i])
	}
	return productDTOs, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, input ProductInput) (*ProductDto, error) {
	name, err := s.parseName(input.Name)
	if err != nil {
		return nil, err
	}
	p, err := s.repository.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.createdCounter.Add(ctx, 1)
	s.publish(ctx, events.ProductCreatedEvent{ProductID: p.ID, Name: p.Name, OccurredAt: s.now()})
	return toDto(p), nil
}

// Rename changes the name of the product with the given ID.
func (s *Service) Rename(ctx context.Context, id int64, input ProductInput) error {
	name, err := s.parseName(input.Name)
	if err != nil {
		return err
	}
	if err := s.repository.UpdateName(ctx, id, name); err != nil {
		return fmt.Errorf("failed to rename product with ID %d: %w", id, err)
	}
	s.renamedCounter.Add(ctx, 1)
	s.publish(ctx, events.ProductRenamedEvent{ProductID: id, Name: name, OccurredAt: s.now()})
	return nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	s.deletedCounter.Add(ctx, 1)
	s.publish(ctx, events.ProductDeletedEvent{ProductID: id, OccurredAt: s.now()})
	return nil
}

// parseName checks that the raw name is present, is a JSON string and is not empty.
func (s *Service) parseName(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", producterrors.MissingField("name")
	}
	var name string
	// a JSON null decodes as a no-op and is caught by the required rule below
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", producterrors.InvalidFormat("name")
	}
	if err := s.validate.Var(name, "required"); err != nil {
		return "", producterrors.InvalidFormat("name")
	}
	return name, nil
}

// publish sends a lifecycle event. Failures are logged and never fail the operation.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:   product.ID,
		Name: product.Name,
	}
}
