package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
)

var (
	// ErrNotFound is returned when no template matches the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateRecord is returned when a template name is already taken.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// TemplateRepository defines the contract for template persistence.
type TemplateRepository interface {
	// GetByID retrieves a template by its id. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*model.Template, error)

	// List returns every stored template, system templates included.
	List(ctx context.Context) ([]*model.Template, error)

	// Create persists a new template. Returns ErrDuplicateRecord on an id or name conflict.
	Create(ctx context.Context, t *model.Template) error

	// Update replaces the mutable fields of an existing template.
	Update(ctx context.Context, t *model.Template) error

	// Delete removes a template. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}

// TemplateCache defines the contract for a caching layer in front of a TemplateRepository.
type TemplateCache interface {
	// Get retrieves an item from the cache. Returns ErrNotFound on a miss.
	Get(ctx context.Context, id string) (*model.Template, error)

	// Set adds an item to the cache for a specified duration.
	Set(ctx context.Context, t *model.Template, expiration time.Duration) error

	// Delete removes an item from the cache.
	Delete(ctx context.Context, id string) error
}

// NotificationQueue defines the contract for handing notifications and their outcomes to a broker.
type NotificationQueue interface {
	// Publish enqueues a notification for asynchronous dispatch.
	Publish(ctx context.Context, n *model.Notification) error

	// PublishOutcome emits the result of a dispatch for downstream consumers (audit, retry).
	PublishOutcome(ctx context.Context, o *model.Outcome) error
}
