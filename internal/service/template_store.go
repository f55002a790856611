package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/ilindan-dev/notification-engine/internal/metrics"
	"github.com/rs/zerolog"
)

const templateResource = "template"

// TemplateStore encapsulates the business rules for managing templates.
// Reads run concurrently, mutations are serialized.
// Persistence is delegated to a TemplateRepository, so the same rules apply to every backend.
type TemplateStore struct {
	mu     sync.RWMutex
	repo   repo.TemplateRepository
	now    func() time.Time
	logger zerolog.Logger
}

// Option customizes a TemplateStore.
type Option func(*TemplateStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TemplateStore) { s.now = now }
}

func NewTemplateStore(repo repo.TemplateRepository, logger *zerolog.Logger, opts ...Option) *TemplateStore {
	s := &TemplateStore{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("layer", "service").Str("component", "template_store").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input and stores a new, non-protected template.
func (s *TemplateStore) Create(ctx context.Context, in model.TemplateInput) (*model.Template, error) {
	now := s.timestamp()
	t := &model.Template{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Subject:   in.Subject,
		Body:      in.Body,
		Type:      in.Type,
		Category:  strings.TrimSpace(in.Category),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateTemplate(t); err != nil {
		s.logger.Warn().Err(err).Str("name", t.Name).Msg("rejected template")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, s.mapWriteError(err, t)
	}

	metrics.TemplateMutations.WithLabelValues("create").Inc()
	s.logger.Info().Str("id", t.ID).Str("type", string(t.Type)).Msg("template created")
	return t, nil
}

// Get returns the template and true, or false when no template has that id.
// The error is reserved for storage failures.
func (s *TemplateStore) Get(ctx context.Context, id string) (*model.Template, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, id)
}

func (s *TemplateStore) get(ctx context.Context, id string) (*model.Template, bool, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}
		s.logger.Error().Err(err).Str("id", id).Msg("failed to load template")
		return nil, false, fmt.Errorf("template store: get %s: %w", id, err)
	}
	return t, true, nil
}

// List returns every template, system templates included.
func (s *TemplateStore) List(ctx context.Context) ([]*model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list templates")
		return nil, fmt.Errorf("template store: list: %w", err)
	}
	return list, nil
}

// ListByType returns the templates of a single channel type.
func (s *TemplateStore) ListByType(ctx context.Context, typ model.Channel) ([]*model.Template, error) {
	if !typ.Valid() {
		return nil, apperr.NewValidationError("type", fmt.Sprintf("unknown template type %q", typ))
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Template, 0, len(all))
	for _, t := range all {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out, nil
}

// Update merges the supplied fields into the template and re-validates the result.
// The type always carries over, so an SMS body is checked against the SMS limit even
// when only the body changes. Returns false when the template does not exist.
func (s *TemplateStore) Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.get(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}

	merged := current.Clone()
	if patch.Name != nil {
		merged.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Subject != nil {
		merged.Subject = *patch.Subject
	}
	if patch.Body != nil {
		merged.Body = *patch.Body
	}
	if patch.Category != nil {
		merged.Category = strings.TrimSpace(*patch.Category)
	}
	if err := validateTemplate(merged); err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("rejected template update")
		return nil, true, err
	}

	now := s.timestamp()
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Microsecond)
	}
	merged.UpdatedAt = now

	if err := s.repo.Update(ctx, merged); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}
		return nil, true, s.mapWriteError(err, merged)
	}

	metrics.TemplateMutations.WithLabelValues("update").Inc()
	s.logger.Info().Str("id", id).Msg("template updated")
	return merged, true, nil
}

// Delete removes a template and reports whether it existed.
// Protected templates are never removed.
func (s *TemplateStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	if current.Protected {
		s.logger.Warn().Str("id", id).Msg("attempt to delete protected template")
		return false, apperr.NewProtectedResourceError(templateResource, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete template")
		return false, fmt.Errorf("template store: delete %s: %w", id, err)
	}

	metrics.TemplateMutations.WithLabelValues("delete").Inc()
	s.logger.Info().Str("id", id).Msg("template deleted")
	return true, nil
}

// SeedSystemTemplates inserts every missing system template and returns how many were added.
// Existing templates with a system id are left untouched, so the call is idempotent.
func (s *TemplateStore) SeedSystemTemplates(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	now := s.timestamp()
	for _, t := range SystemTemplates() {
		_, exists, err := s.get(ctx, t.ID)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		t.CreatedAt, t.UpdatedAt = now, now
		if err := validateTemplate(t); err != nil {
			return added, fmt.Errorf("system template %s: %w", t.ID, err)
		}
		if err := s.repo.Create(ctx, t); err != nil {
			return added, fmt.Errorf("template store: seed %s: %w", t.ID, err)
		}
		added++
	}

	s.logger.Info().Int("added", added).Msg("system templates seeded")
	return added, nil
}

// timestamp is truncated to microseconds so values survive a round trip through postgres.
func (s *TemplateStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TemplateStore) mapWriteError(err error, t *model.Template) error {
	if errors.Is(err, repo.ErrDuplicateRecord) {
		return apperr.NewValidationError("name", fmt.Sprintf("template name %q is already in use", t.Name))
	}
	s.logger.Error().Err(err).Str("id", t.ID).Msg("failed to persist template")
	return fmt.Errorf("template store: write %s: %w", t.ID, err)
}

func validateTemplate(t *model.Template) error {
	if t.Name == "" {
		return apperr.NewValidationError("name", "is required")
	}
	if !t.Type.Valid() {
		return apperr.NewValidationError("type", fmt.Sprintf("must be one of EMAIL, SMS, PUSH, got %q", t.Type))
	}
	if t.Type != model.ChannelSMS && strings.TrimSpace(t.Subject) == "" {
		return apperr.NewValidationError("subject", fmt.Sprintf("is required for %s templates", t.Type))
	}
	if strings.TrimSpace(t.Body) == "" {
		return apperr.NewValidationError("body", "is required")
	}
	if t.Type == model.ChannelSMS {
		if n := utf8.RuneCountInString(t.Body); n > model.MaxSMSTemplateLength {
			return apperr.NewValidationError("body",
				fmt.Sprintf("SMS body is %d characters, limit is %d", n, model.MaxSMSTemplateLength))
		}
	}
	return nil
}
