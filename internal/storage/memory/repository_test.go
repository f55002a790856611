package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *TemplateRepository {
	logger := zerolog.Nop()
	return NewTemplateRepository(&logger)
}

func tmpl(id, name string, created time.Time) *model.Template {
	return &model.Template{ID: id, Name: name, Body: "b", Type: model.ChannelSMS, CreatedAt: created, UpdatedAt: created}
}

func TestTemplateRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	now := time.Now()

	require.NoError(t, r.Create(ctx, tmpl("1", "first", now)))

	got, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	got.Name = "mutated outside"
	again, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "first", again.Name)

	upd := tmpl("1", "renamed", now)
	require.NoError(t, r.Update(ctx, upd))
	require.NoError(t, r.Create(ctx, tmpl("2", "first", now)), "old name is released on rename")

	require.NoError(t, r.Delete(ctx, "1"))
	_, err = r.GetByID(ctx, "1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "1"), repo.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, upd), repo.ErrNotFound)
}

func TestTemplateRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	now := time.Now()

	require.NoError(t, r.Create(ctx, tmpl("1", "a", now)))
	require.NoError(t, r.Create(ctx, tmpl("2", "b", now)))

	assert.ErrorIs(t, r.Create(ctx, tmpl("1", "c", now)), repo.ErrDuplicateRecord)
	assert.ErrorIs(t, r.Create(ctx, tmpl("3", "a", now)), repo.ErrDuplicateRecord)
	assert.ErrorIs(t, r.Update(ctx, tmpl("2", "a", now)), repo.ErrDuplicateRecord)
}

func TestTemplateRepository_ListOrdered(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	base := time.Now()

	require.NoError(t, r.Create(ctx, tmpl("c", "c", base.Add(2*time.Second))))
	require.NoError(t, r.Create(ctx, tmpl("a", "a", base)))
	require.NoError(t, r.Create(ctx, tmpl("b", "b", base.Add(time.Second))))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}
