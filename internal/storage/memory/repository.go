// Package memory provides a process-local TemplateRepository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Ensure TemplateRepository implements the interface
var _ repo.TemplateRepository = (*TemplateRepository)(nil)

// TemplateRepository keeps templates in a map guarded by a RWMutex.
// Stored values are copied in and out so callers never share memory with the map.
type TemplateRepository struct {
	mu     sync.RWMutex
	byID   map[string]*model.Template
	byName map[string]string
	logger zerolog.Logger
}

// NewTemplateRepository creates an empty in-memory repository.
func NewTemplateRepository(logger *zerolog.Logger) *TemplateRepository {
	return &TemplateRepository{
		byID:   make(map[string]*model.Template),
		byName: make(map[string]string),
		logger: logger.With().Str("layer", "memory_repository").Logger(),
	}
}

func (r *TemplateRepository) GetByID(_ context.Context, id string) (*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

// List returns templates ordered by creation time, then id.
func (r *TemplateRepository) List(_ context.Context) ([]*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Template, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TemplateRepository) Create(_ context.Context, t *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[t.ID]; ok {
		return repo.ErrDuplicateRecord
	}
	if _, ok := r.byName[t.Name]; ok {
		return repo.ErrDuplicateRecord
	}
	r.byID[t.ID] = t.Clone()
	r.byName[t.Name] = t.ID
	r.logger.Debug().Str("id", t.ID).Msg("template stored")
	return nil
}

func (r *TemplateRepository) Update(_ context.Context, t *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[t.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if owner, taken := r.byName[t.Name]; taken && owner != t.ID {
		return repo.ErrDuplicateRecord
	}
	delete(r.byName, prev.Name)
	r.byID[t.ID] = t.Clone()
	r.byName[t.Name] = t.ID
	return nil
}

func (r *TemplateRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byName, t.Name)
	return nil
}
