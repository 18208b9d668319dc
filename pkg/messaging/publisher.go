package messaging

import (
	"context"
)

// Subjects for product lifecycle events.
const (
	ProductsCreatedSubject = "products.created"
	ProductsRenamedSubject = "products.renamed"
	ProductsDeletedSubject = "products.deleted"

	// ProductSubjects matches every product lifecycle subject.
	ProductSubjects = "products.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}
