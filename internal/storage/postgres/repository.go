package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/ilindan-dev/notification-engine/internal/storage/postgres/db"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

// Ensure TemplateRepository implements the interface
var _ repo.TemplateRepository = (*TemplateRepository)(nil)

// TemplateRepository implements the domain.repository.TemplateRepository interface
// using PostgreSQL as a backend.
type TemplateRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

// NewTemplateRepository creates a new instance of the TemplateRepository.
// conn is usually a *pgxpool.Pool.
func NewTemplateRepository(conn db.DBTX, logger *zerolog.Logger) *TemplateRepository {
	return &TemplateRepository{
		queries: db.New(conn),
		logger:  logger.With().Str("layer", "postgres_repository").Logger(),
	}
}

// GetByID retrieves a template by its id.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	dbTemplate, err := r.queries.GetTemplateByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("id", id).Msg("template not found by id")
			return nil, repo.ErrNotFound
		}
		r.logger.Err(err).Str("method", "GetByID").Msg("cannot get template")
		return nil, fmt.Errorf("postgres: GetTemplateByID failed: %w", err)
	}
	return toDomainModel(&dbTemplate), nil
}

// List returns every template ordered by creation time.
func (r *TemplateRepository) List(ctx context.Context) ([]*model.Template, error) {
	rows, err := r.queries.ListTemplates(ctx)
	if err != nil {
		r.logger.Err(err).Str("method", "List").Msg("cannot list templates")
		return nil, fmt.Errorf("postgres: ListTemplates failed: %w", err)
	}
	out := make([]*model.Template, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainModel(&rows[i]))
	}
	return out, nil
}

// Create persists a new template.
func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	if err := r.queries.CreateTemplate(ctx, toDBCreateParams(t)); err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicateRecord
		}
		r.logger.Err(err).Str("id", t.ID).Msg("cannot create template")
		return fmt.Errorf("postgres: CreateTemplate failed: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a template.
func (r *TemplateRepository) Update(ctx context.Context, t *model.Template) error {
	n, err := r.queries.UpdateTemplate(ctx, db.UpdateTemplateParams{
		ID:        t.ID,
		Name:      t.Name,
		Subject:   t.Subject,
		Body:      t.Body,
		Category:  t.Category,
		UpdatedAt: pgtype.Timestamptz{Time: t.UpdatedAt, Valid: true},
	})
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicateRecord
		}
		r.logger.Err(err).Str("id", t.ID).Msg("cannot update template")
		return fmt.Errorf("postgres: UpdateTemplate failed: %w", err)
	}
	if n == 0 {
		r.logger.Warn().Str("id", t.ID).Msg("tried to update non-existent template")
		return repo.ErrNotFound
	}
	return nil
}

// Delete removes a template row.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTemplate(ctx, id)
	if err != nil {
		r.logger.Err(err).Str("id", id).Msg("cannot delete template")
		return fmt.Errorf("postgres: DeleteTemplate failed: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// === Mapper Functions ===

func toDBCreateParams(t *model.Template) db.CreateTemplateParams {
	return db.CreateTemplateParams{
		ID:        t.ID,
		Name:      t.Name,
		Subject:   t.Subject,
		Body:      t.Body,
		Type:      db.ChannelType(t.Type),
		Category:  t.Category,
		Protected: t.Protected,
		CreatedAt: pgtype.Timestamptz{Time: t.CreatedAt, Valid: true},
		UpdatedAt: pgtype.Timestamptz{Time: t.UpdatedAt, Valid: true},
	}
}

func toDomainModel(dbt *db.Template) *model.Template {
	return &model.Template{
		ID:        dbt.ID,
		Name:      dbt.Name,
		Subject:   dbt.Subject,
		Body:      dbt.Body,
		Type:      model.Channel(dbt.Type),
		Category:  dbt.Category,
		Protected: dbt.Protected,
		CreatedAt: dbt.CreatedAt.Time.UTC(),
		UpdatedAt: dbt.UpdatedAt.Time.UTC(),
	}
}
