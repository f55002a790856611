package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/rs/zerolog"
)

// DefaultTTL is used when the configured cache TTL is not positive.
const DefaultTTL = 24 * time.Hour

// Ensure CachedTemplateRepository implements the interface
var _ repo.TemplateRepository = (*CachedTemplateRepository)(nil)

// CachedTemplateRepository is a decorator for a TemplateRepository
// that adds a read-through caching layer for single-template lookups.
type CachedTemplateRepository struct {
	primaryRepo repo.TemplateRepository
	cache       repo.TemplateCache
	logger      zerolog.Logger
	ttl         time.Duration
}

// NewCachedTemplateRepository creates a new instance of the cached repository.
func NewCachedTemplateRepository(
	primaryRepo repo.TemplateRepository,
	cache repo.TemplateCache,
	ttl time.Duration,
	logger *zerolog.Logger,
) *CachedTemplateRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedTemplateRepository{
		primaryRepo: primaryRepo,
		cache:       cache,
		logger:      logger.With().Str("layer", "cached_repository").Logger(),
		ttl:         ttl,
	}
}

// GetByID implements the cache-aside pattern.
// Cache errors never fail the lookup; the primary repository is the source of truth.
func (r *CachedTemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	cached, err := r.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		r.logger.Error().Err(err).Str("id", id).Msg("cache get error, falling back to primary repository")
	}

	primary, err := r.primaryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, primary, r.ttl); err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("failed to set cache after db fetch")
	}
	return primary, nil
}

// List always reads the primary repository.
func (r *CachedTemplateRepository) List(ctx context.Context) ([]*model.Template, error) {
	return r.primaryRepo.List(ctx)
}

// Create persists the template, then warms up the cache.
func (r *CachedTemplateRepository) Create(ctx context.Context, t *model.Template) error {
	if err := r.primaryRepo.Create(ctx, t); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, t, r.ttl); err != nil {
		r.logger.Error().Err(err).Str("id", t.ID).Msg("failed to cache template after create")
	}
	return nil
}

// Update writes through to the primary repository, then invalidates the cache entry.
func (r *CachedTemplateRepository) Update(ctx context.Context, t *model.Template) error {
	if err := r.primaryRepo.Update(ctx, t); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, t.ID); err != nil {
		r.logger.Error().Err(err).Str("id", t.ID).Msg("failed to invalidate cache after update")
	}
	return nil
}

// Delete removes the template from the primary repository, then invalidates the cache.
func (r *CachedTemplateRepository) Delete(ctx context.Context, id string) error {
	if err := r.primaryRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("failed to invalidate cache after delete")
	}
	return nil
}
