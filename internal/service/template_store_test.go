package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/ilindan-dev/notification-engine/internal/render"
	"github.com/ilindan-dev/notification-engine/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...Option) *TemplateStore {
	t.Helper()
	logger := zerolog.Nop()
	return NewTemplateStore(memory.NewTemplateRepository(&logger), &logger, opts...)
}

func ptr(s string) *string { return &s }

func TestTemplateStore_CreateAndRender(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	tmpl, err := s.Create(ctx, model.TemplateInput{
		Name:    "Payment",
		Subject: "Paid {{amount}}",
		Body:    "Paid {{amount}} to {{payee}}",
		Type:    model.ChannelEmail,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tmpl.ID)
	assert.Equal(t, tmpl.CreatedAt, tmpl.UpdatedAt)
	assert.False(t, tmpl.Protected)

	data := map[string]string{"amount": "$10", "payee": "Acme"}
	assert.Equal(t, "Paid $10", render.Render(tmpl.Subject, data))
	assert.Equal(t, "Paid $10 to Acme", render.Render(tmpl.Body, data))

	got, ok, err := s.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tmpl, got)
}

func TestTemplateStore_CreateValidation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	tests := []struct {
		name  string
		in    model.TemplateInput
		field string
	}{
		{"missing name", model.TemplateInput{Subject: "s", Body: "b", Type: model.ChannelEmail}, "name"},
		{"blank name", model.TemplateInput{Name: "  ", Subject: "s", Body: "b", Type: model.ChannelEmail}, "name"},
		{"unknown type", model.TemplateInput{Name: "n", Subject: "s", Body: "b", Type: "FAX"}, "type"},
		{"email without subject", model.TemplateInput{Name: "n", Body: "b", Type: model.ChannelEmail}, "subject"},
		{"push without subject", model.TemplateInput{Name: "n", Body: "b", Type: model.ChannelPush}, "subject"},
		{"missing body", model.TemplateInput{Name: "n", Subject: "s", Type: model.ChannelEmail}, "body"},
		{"sms too long", model.TemplateInput{Name: "n", Body: strings.Repeat("a", 161), Type: model.ChannelSMS}, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.in)
			var vErr *apperr.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestTemplateStore_SMSLengthBoundary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Create(ctx, model.TemplateInput{Name: "exact", Body: strings.Repeat("a", 160), Type: model.ChannelSMS})
	require.NoError(t, err)

	_, err = s.Create(ctx, model.TemplateInput{Name: "multibyte", Body: strings.Repeat("é", 160), Type: model.ChannelSMS})
	require.NoError(t, err, "limit counts characters, not bytes")

	_, err = s.Create(ctx, model.TemplateInput{Name: "sms no subject", Body: "hi", Type: model.ChannelSMS})
	require.NoError(t, err, "subject is not required for SMS")
}

func TestTemplateStore_DuplicateName(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Create(ctx, model.TemplateInput{Name: "dup", Body: "a", Type: model.ChannelSMS})
	require.NoError(t, err)

	_, err = s.Create(ctx, model.TemplateInput{Name: "dup", Body: "b", Type: model.ChannelSMS})
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestTemplateStore_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newStore(t, WithClock(func() time.Time { return base }))

	tmpl, err := s.Create(ctx, model.TemplateInput{Name: "n", Subject: "old subject", Body: "old body", Type: model.ChannelPush})
	require.NoError(t, err)

	updated, ok, err := s.Update(ctx, tmpl.ID, model.TemplatePatch{Body: ptr("new body")})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "n", updated.Name)
	assert.Equal(t, "old subject", updated.Subject)
	assert.Equal(t, "new body", updated.Body)
	assert.Equal(t, model.ChannelPush, updated.Type)
	assert.Equal(t, tmpl.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(tmpl.UpdatedAt), "frozen clock still yields a strictly later updatedAt")

	again, _, err := s.Update(ctx, tmpl.ID, model.TemplatePatch{Name: ptr("renamed")})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
}

func TestTemplateStore_UpdateKeepsSMSType(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	tmpl, err := s.Create(ctx, model.TemplateInput{Name: "sms", Body: "short", Type: model.ChannelSMS})
	require.NoError(t, err)

	_, ok, err := s.Update(ctx, tmpl.ID, model.TemplatePatch{Body: ptr(strings.Repeat("x", 161))})
	assert.True(t, ok)
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)

	got, _, err := s.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "short", got.Body, "rejected update leaves the template unchanged")
}

func TestTemplateStore_UpdateRevalidatesMergedResult(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	tmpl, err := s.Create(ctx, model.TemplateInput{Name: "mail", Subject: "s", Body: "b", Type: model.ChannelEmail})
	require.NoError(t, err)

	_, _, err = s.Update(ctx, tmpl.ID, model.TemplatePatch{Subject: ptr("")})
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "subject", vErr.Field)
}

func TestTemplateStore_UpdateMissing(t *testing.T) {
	s := newStore(t)
	got, ok, err := s.Update(context.Background(), "nope", model.TemplatePatch{Body: ptr("x")})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTemplateStore_Get_AbsenceIsNotAnError(t *testing.T) {
	s := newStore(t)
	got, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTemplateStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	tmpl, err := s.Create(ctx, model.TemplateInput{Name: "temp", Body: "b", Type: model.ChannelSMS})
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTemplateStore_DeleteProtectedAlwaysFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	added, err := s.SeedSystemTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SystemTemplates()), added)

	for _, sys := range SystemTemplates() {
		for attempt := 0; attempt < 3; attempt++ {
			deleted, err := s.Delete(ctx, sys.ID)
			assert.False(t, deleted)
			var pErr *apperr.ProtectedResourceError
			require.ErrorAs(t, err, &pErr, "attempt %d on %s", attempt, sys.ID)
		}
		_, ok, err := s.Get(ctx, sys.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestTemplateStore_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.SeedSystemTemplates(ctx)
	require.NoError(t, err)
	added, err := s.SeedSystemTemplates(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(SystemTemplates()))
}

func TestTemplateStore_ListByType(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.SeedSystemTemplates(ctx)
	require.NoError(t, err)

	sms, err := s.ListByType(ctx, model.ChannelSMS)
	require.NoError(t, err)
	require.NotEmpty(t, sms)
	for _, tmpl := range sms {
		assert.Equal(t, model.ChannelSMS, tmpl.Type)
	}

	_, err = s.ListByType(ctx, "FAX")
	var vErr *apperr.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestTemplateStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	tmpl, err := s.Create(ctx, model.TemplateInput{Name: "hot", Subject: "s", Body: "b", Type: model.ChannelPush})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _ = s.Update(ctx, tmpl.ID, model.TemplatePatch{Body: ptr("updated")})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = s.Get(ctx, tmpl.ID)
		}()
	}
	wg.Wait()

	got, ok, err := s.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "updated", got.Body)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

type failingRepo struct {
	*memory.TemplateRepository
}

func (failingRepo) GetByID(context.Context, string) (*model.Template, error) {
	return nil, errors.New("connection refused")
}

func TestTemplateStore_StorageErrorsPropagate(t *testing.T) {
	logger := zerolog.Nop()
	s := NewTemplateStore(failingRepo{memory.NewTemplateRepository(&logger)}, &logger)

	_, ok, err := s.Get(context.Background(), "x")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSystemTemplates_AreValidAndProtected(t *testing.T) {
	ids := make(map[string]bool)
	for _, tmpl := range SystemTemplates() {
		assert.True(t, tmpl.Protected, tmpl.ID)
		assert.NoError(t, validateTemplate(tmpl), tmpl.ID)
		assert.False(t, ids[tmpl.ID], "duplicate id %s", tmpl.ID)
		ids[tmpl.ID] = true
	}
	for _, ch := range []model.Channel{model.ChannelEmail, model.ChannelPush, model.ChannelSMS} {
		assert.True(t, ids["fraud-alert-"+strings.ToLower(string(ch))], "fraud alert for %s", ch)
	}
}
