package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/handler"
)

// mockExperienceServicer is a test double for handler.ExperienceServicer.
type mockExperienceServicer struct {
	search  func(ctx context.Context, f domain.Filters, p domain.PaginationParams) ([]domain.Experience, int64, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Experience, error)
}

func (m *mockExperienceServicer) Search(ctx context.Context, f domain.Filters, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	return m.search(ctx, f, p)
}
func (m *mockExperienceServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Experience, error) {
	return m.getByID(ctx, id)
}

var _ handler.ExperienceServicer = (*mockExperienceServicer)(nil)

func newExperienceRouter(svc handler.ExperienceServicer) http.Handler {
	return handler.NewServer(nil, svc, nil, nil).Routes()
}

func experienceFixture() domain.Experience {
	return domain.Experience{
		ID:          uuid.New(),
		Title:       "Glacier Kayaking",
		Description: "Paddle between icebergs with a certified guide.",
		IsAvailable: true,
		Duration:    2,
		Tags:        []string{"water", "alpine"},
		Location:    "Juneau",
		Tiers: []domain.TierInfo{
			{Name: "standard", Price: 249, Members: 2},
			{Name: "group", Price: 199, Members: 8},
		},
	}
}

// ---- GET /experiences ------------------------------------------------------

func TestSearchExperiences_200_parsesFilters(t *testing.T) {
	fixture := experienceFixture()
	var gotFilters domain.Filters
	svc := &mockExperienceServicer{
		search: func(_ context.Context, f domain.Filters, _ domain.PaginationParams) ([]domain.Experience, int64, error) {
			gotFilters = f
			return []domain.Experience{fixture}, 1, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/experiences?isAvailable=true&minPrice=100&maxPrice=300&tags=water,alpine&locations=Juneau", nil)
	rec := httptest.NewRecorder()
	newExperienceRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, gotFilters.IsAvailable)
	assert.True(t, *gotFilters.IsAvailable)
	require.NotNil(t, gotFilters.MinPrice)
	assert.Equal(t, 100.0, *gotFilters.MinPrice)
	require.NotNil(t, gotFilters.MaxPrice)
	assert.Equal(t, 300.0, *gotFilters.MaxPrice)
	assert.Equal(t, []string{"water", "alpine"}, gotFilters.Tags)
	assert.Equal(t, []string{"Juneau"}, gotFilters.Locations)
}

func TestSearchExperiences_200_noFilters(t *testing.T) {
	svc := &mockExperienceServicer{
		search: func(_ context.Context, f domain.Filters, _ domain.PaginationParams) ([]domain.Experience, int64, error) {
			assert.Nil(t, f.IsAvailable)
			assert.Nil(t, f.MinPrice)
			assert.Empty(t, f.Tags)
			return []domain.Experience{}, 0, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/experiences", nil)
	rec := httptest.NewRecorder()
	newExperienceRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Experience `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, resp.Data, "empty result must serialize as [], not null")
}

func TestSearchExperiences_422_badParam(t *testing.T) {
	svc := &mockExperienceServicer{} // search must not be reached

	req := httptest.NewRequest(http.MethodGet, "/experiences?minPrice=cheap", nil)
	rec := httptest.NewRecorder()
	newExperienceRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	code, message, _ := decodeErrorBody(t, rec.Body)
	assert.Equal(t, "validation_error", code)
	assert.Contains(t, message, "minPrice")
}

func TestSearchExperiences_422_invalidRange(t *testing.T) {
	svc := &mockExperienceServicer{
		search: func(_ context.Context, f domain.Filters, _ domain.PaginationParams) ([]domain.Experience, int64, error) {
			return nil, 0, fmt.Errorf("service.ExperienceService.Search: %w: minPrice must not exceed maxPrice", domain.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/experiences?minPrice=300&maxPrice=100", nil)
	rec := httptest.NewRecorder()
	newExperienceRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, message, _ := decodeErrorBody(t, rec.Body)
	assert.Equal(t, "minPrice must not exceed maxPrice", message)
}

// ---- GET /experiences/{id} -------------------------------------------------

func TestGetExperience_200(t *testing.T) {
	fixture := experienceFixture()
	svc := &mockExperienceServicer{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Experience, error) {
			require.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/experiences/"+fixture.ID.String(), nil)
	rec := httptest.NewRecorder()
	newExperienceRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.Experience
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.Title, resp.Title)
	assert.Len(t, resp.Tiers, 2)
}

func TestGetExperience_404(t *testing.T) {
	svc := &mockExperienceServicer{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Experience, error) {
			return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.GetByID: %w", domain.ErrNotFound)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/experiences/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	newExperienceRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
