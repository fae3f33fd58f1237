package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/repo"
)

// seedExperience inserts a catalog entry directly. The experience tables are
// written by a back-office system in production, so the repo has no insert
// methods to lean on here.
func seedExperience(t *testing.T, tx pgx.Tx, exp domain.Experience) {
	t.Helper()
	ctx := context.Background()

	const eq = `
		INSERT INTO experiences (id, title, description, image, average_rating, is_available, duration, tags, location)
		VALUES (@id, @title, @description, @image, @average_rating, @is_available, @duration, @tags, @location)`
	_, err := tx.Exec(ctx, eq, pgx.NamedArgs{
		"id":             exp.ID,
		"title":          exp.Title,
		"description":    exp.Description,
		"image":          exp.Image,
		"average_rating": exp.AverageRating,
		"is_available":   exp.IsAvailable,
		"duration":       exp.Duration,
		"tags":           exp.Tags,
		"location":       exp.Location,
	})
	require.NoError(t, err, "seed experience")

	const tq = `
		INSERT INTO tiers (experience_id, name, price, members, description)
		VALUES (@experience_id, @name, @price, @members, @description)`
	for _, tier := range exp.Tiers {
		_, err := tx.Exec(ctx, tq, pgx.NamedArgs{
			"experience_id": exp.ID,
			"name":          tier.Name,
			"price":         tier.Price,
			"members":       tier.Members,
			"description":   tier.Description,
		})
		require.NoError(t, err, "seed tier %s", tier.Name)
	}
}

func glacierKayaking() domain.Experience {
	return domain.Experience{
		ID:            uuid.New(),
		Title:         "Glacier Kayaking",
		Description:   "Paddle between icebergs with a certified guide.",
		AverageRating: 4.8,
		IsAvailable:   true,
		Duration:      2,
		Tags:          []string{"water", "alpine"},
		Location:      "Juneau",
		Tiers: []domain.TierInfo{
			{Name: "group", Price: 199, Members: 8},
			{Name: "standard", Price: 249, Members: 2},
		},
	}
}

func TestExperienceRepo_GetByID(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewExperienceRepo(tx)
	ctx := context.Background()

	exp := glacierKayaking()
	seedExperience(t, tx, exp)

	got, err := r.GetByID(ctx, exp.ID)

	require.NoError(t, err)
	assert.Equal(t, exp.Title, got.Title)
	assert.Equal(t, exp.Tags, got.Tags)
	require.Len(t, got.Tiers, 2)
	assert.Equal(t, "group", got.Tiers[0].Name, "tiers load ordered by price ascending")
	assert.Equal(t, 249.0, got.Tiers[1].Price)
}

func TestExperienceRepo_GetByID_NotFound(t *testing.T) {
	r := repo.NewExperienceRepo(newTestTx(t))

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExperienceRepo_Search_filters(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewExperienceRepo(tx)
	ctx := context.Background()

	kayaking := glacierKayaking()
	seedExperience(t, tx, kayaking)

	desert := glacierKayaking()
	desert.ID = uuid.New()
	desert.Title = "Desert Stargazing"
	desert.Tags = []string{"night", "desert"}
	desert.Location = "Moab"
	desert.IsAvailable = false
	seedExperience(t, tx, desert)

	t.Run("by tag overlap", func(t *testing.T) {
		f := domain.Filters{Tags: []string{"water", "forest"}}
		got, total, err := r.Search(ctx, f, domain.NewPaginationParams(nil, nil))

		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, kayaking.ID, got[0].ID)
	})

	t.Run("by availability", func(t *testing.T) {
		avail := true
		f := domain.Filters{IsAvailable: &avail, Locations: []string{"Juneau", "Moab"}}
		got, total, err := r.Search(ctx, f, domain.NewPaginationParams(nil, nil))

		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, kayaking.ID, got[0].ID)
	})

	t.Run("by price range", func(t *testing.T) {
		minPrice := 240.0
		f := domain.Filters{MinPrice: &minPrice, Locations: []string{"Juneau"}}
		got, total, err := r.Search(ctx, f, domain.NewPaginationParams(nil, nil))

		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		require.Len(t, got[0].Tiers, 2, "all tiers load even when only one matched the price filter")
	})

	t.Run("no match", func(t *testing.T) {
		f := domain.Filters{Locations: []string{"Reykjavik"}}
		got, total, err := r.Search(ctx, f, domain.NewPaginationParams(nil, nil))

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, got)
	})
}

func TestExperienceRepo_IsTierActive(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewExperienceRepo(tx)
	ctx := context.Background()

	exp := glacierKayaking()
	seedExperience(t, tx, exp)

	retired := glacierKayaking()
	retired.ID = uuid.New()
	retired.IsAvailable = false
	seedExperience(t, tx, retired)

	active, err := r.IsTierActive(ctx, exp.ID, "standard")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = r.IsTierActive(ctx, retired.ID, "standard")
	require.NoError(t, err)
	assert.False(t, active, "tiers of an unavailable experience are inactive")

	active, err = r.IsTierActive(ctx, exp.ID, "platinum")
	require.NoError(t, err)
	assert.False(t, active, "a missing tier is a definitive no, not an error")

	active, err = r.IsTierActive(ctx, uuid.New(), "standard")
	require.NoError(t, err)
	assert.False(t, active)
}
