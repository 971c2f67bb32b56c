package source

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep/internal/apperr"
	"nextstep/internal/models"
	"nextstep/internal/storage/badger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store)
}

func htmlRequest(name string) CreateRequest {
	return CreateRequest{
		Name:    name,
		BaseURL: "https://careers.example.com",
		Selectors: map[string]string{
			models.SelectorItem:  ".job",
			models.SelectorTitle: "h2",
		},
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreate_Defaults(t *testing.T) {
	svc := newTestService(t)

	src, err := svc.Create(context.Background(), htmlRequest("Acme"))
	require.NoError(t, err)

	_, err = uuid.Parse(src.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProviderHTML, src.ProviderType)
	assert.True(t, src.Enabled)
	assert.Equal(t, models.DefaultFrequencyMinutes, src.FrequencyMinutes)
	assert.False(t, src.CreatedAt.IsZero())
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		mod   func(r *CreateRequest)
		field string
	}{
		{"short name", func(r *CreateRequest) { r.Name = "A" }, "name"},
		{"blank name", func(r *CreateRequest) { r.Name = "   " }, "name"},
		{"short name after trim", func(r *CreateRequest) { r.Name = "  A  " }, "name"},
		{"bad url", func(r *CreateRequest) { r.BaseURL = "not a url" }, "baseUrl"},
		{"low frequency", func(r *CreateRequest) { r.FrequencyMinutes = 2 }, "frequencyMinutes"},
		{"unknown kind", func(r *CreateRequest) { r.ProviderType = "rss" }, "providerType"},
		{"missing item selector", func(r *CreateRequest) { delete(r.Selectors, models.SelectorItem) }, "selectors.item"},
		{"api without endpoint", func(r *CreateRequest) { r.ProviderType = models.ProviderAPI }, "apiConfig.endpoint"},
		{"api bad endpoint", func(r *CreateRequest) {
			r.ProviderType = models.ProviderAPI
			r.APIConfig = &models.APIConfig{Endpoint: "nope"}
		}, "apiConfig.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := htmlRequest("Valid Name")
			tt.mod(&req)

			_, err := svc.Create(ctx, req)
			require.Error(t, err)
			assert.Equal(t, 400, apperr.StatusCode(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, htmlRequest("Acme"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, htmlRequest("Acme"))

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)

	_, err = svc.Create(ctx, htmlRequest(" Acme "))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreate_TrimsName(t *testing.T) {
	svc := newTestService(t)

	src, err := svc.Create(context.Background(), htmlRequest("  Acme Careers "))
	require.NoError(t, err)
	assert.Equal(t, "Acme Careers", src.Name)
}

func TestUpdate_Name(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	acme, err := svc.Create(ctx, htmlRequest("Acme"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, htmlRequest("Globex"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, acme.ID, UpdateRequest{Name: ptr("   ")})
	assert.Equal(t, 400, apperr.StatusCode(err))

	_, err = svc.Update(ctx, acme.ID, UpdateRequest{Name: ptr(" Globex ")})
	assert.Equal(t, 400, apperr.StatusCode(err))

	updated, err := svc.Update(ctx, acme.ID, UpdateRequest{Name: ptr(" Acme Careers ")})
	require.NoError(t, err)
	assert.Equal(t, "Acme Careers", updated.Name)
}

func TestImport_TrimmedDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []CreateRequest{htmlRequest("Acme"), htmlRequest(" Acme ")})
	assert.Equal(t, 400, apperr.StatusCode(err))

	_, err = svc.Create(ctx, htmlRequest("Acme"))
	require.NoError(t, err)
	res, err := svc.Import(ctx, []CreateRequest{htmlRequest(" Acme ")})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].Name)
}

func TestUpdate_PartialMerge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	src, err := svc.Create(ctx, htmlRequest("Acme"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, src.ID, UpdateRequest{Enabled: ptr(false), FrequencyMinutes: ptr(60)})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, 60, updated.FrequencyMinutes)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, ".job", updated.Selectors[models.SelectorItem])

	_, err = svc.Update(ctx, src.ID, UpdateRequest{ProviderType: ptr(models.ProviderAPI)})
	assert.Equal(t, 400, apperr.StatusCode(err))

	updated, err = svc.Update(ctx, src.ID, UpdateRequest{
		ProviderType: ptr(models.ProviderAPI),
		APIConfig:    &models.APIConfig{Endpoint: "https://api.example.com/jobs"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAPI, updated.ProviderType)
}

func TestUpdate_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "bad-id", UpdateRequest{})
	assert.Equal(t, 400, apperr.StatusCode(err))

	_, err = svc.Update(ctx, uuid.NewString(), UpdateRequest{Enabled: ptr(true)})
	assert.Equal(t, 404, apperr.StatusCode(err))

	src, err := svc.Create(ctx, htmlRequest("Acme"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, src.ID, UpdateRequest{FrequencyMinutes: ptr(1)})
	assert.Equal(t, 400, apperr.StatusCode(err))

	_, err = svc.Create(ctx, htmlRequest("Globex"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, src.ID, UpdateRequest{Name: ptr("Globex")})
	assert.Equal(t, 400, apperr.StatusCode(err))
}

func TestGet_MalformedIDIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, 404, apperr.StatusCode(err))
}

func TestImport_CreatesThenUpdates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, []CreateRequest{htmlRequest("Acme"), htmlRequest("Globex")})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 2}, res)

	changed := htmlRequest("Acme")
	changed.ListPath = "/jobs"
	res, err = svc.Import(ctx, []CreateRequest{changed})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		if s.Name == "Acme" {
			assert.Equal(t, "/jobs", s.ListPath)
		}
	}
}

func TestImport_ValidatesEverythingFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bad := htmlRequest("X")
	_, err := svc.Import(ctx, []CreateRequest{htmlRequest("Acme"), bad})
	require.Error(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Import(ctx, []CreateRequest{htmlRequest("Acme"), htmlRequest("Acme")})
	assert.Equal(t, 400, apperr.StatusCode(err))
}
