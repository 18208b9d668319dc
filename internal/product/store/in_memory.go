package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/abgdnv/productsapi/internal/product/errors"
)

var _ ProductStore = (*InMemory)(nil)

// InMemory implements ProductStore using an in-memory map.
// A single lock guards the map, the insertion order and the id counter.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]Product
	order    []int64
	nextID   int64
}

// NewInMemoryStore creates an empty in-memory store. The first issued ID is 1.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[int64]Product),
		nextID:   1,
	}
}

// NewSeededStore creates an in-memory store holding one product per name, in order.
func NewSeededStore(ctx context.Context, names []string) (*InMemory, error) {
	s := NewInMemoryStore()
	for _, name := range names {
		if _, err := s.Create(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to seed product %q: %w", name, err)
		}
	}
	return s, nil
}

// FindAll retrieves all products in insertion order.
func (s *InMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.products[id])
	}
	return list, nil
}

// FindByID retrieves a product by its ID.
func (s *InMemory) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	return &p, nil
}

// Create creates a new product and returns it.
func (s *InMemory) Create(_ context.Context, name string) (*Product, error) {
	if name == "" {
		return nil, errors.InvalidFormat("name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:   s.nextID,
		Name: name,
	}
	s.nextID++
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)

	return &product, nil
}

// UpdateName renames an existing product. The ID is left untouched.
func (s *InMemory) UpdateName(_ context.Context, id int64, name string) error {
	if name == "" {
		return errors.InvalidFormat("name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return errors.ErrProductNotFound
	}
	p.Name = name
	s.products[id] = p
	return nil
}

// DeleteByID deletes a product by its ID.
func (s *InMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return errors.ErrProductNotFound
	}
	delete(s.products, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}
