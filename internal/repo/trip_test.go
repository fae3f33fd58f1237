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
	"github.com/mkaplan/wayfare/backend/testutil"
)

// newTestTx opens a transaction against the test database and rolls it back
// when the test finishes, giving free per-test isolation. Repos constructed on
// the returned tx run their own writes as savepoints inside it.
//
// Requires TEST_DATABASE_URL to be set; migrations are applied by TestMain.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

func newTestTripRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	return repo.NewTripRepo(newTestTx(t))
}

// coastTrip returns a persisted-ready trip aggregate. The repo layer does not
// assign IDs (that is the service's job), so the fixture carries them.
func coastTrip() domain.Trip {
	hotelID := uuid.New()
	return domain.Trip{
		ID:   uuid.New(),
		Name: "Pacific Coast",
		Waypoints: []domain.Waypoint{
			{
				ID:          uuid.New(),
				Name:        "San Francisco",
				Description: "Start at the Golden Gate.",
				Type:        domain.WaypointStart,
				Hotels:      []domain.Hotel{},
			},
			{
				ID:          uuid.New(),
				Name:        "Big Sur",
				Description: "Cliffside camping stop.",
				Type:        domain.WaypointStop,
				Hotels: []domain.Hotel{
					{ID: &hotelID, Name: "Ragged Point Inn", DetailsLink: "https://example.com/ragged-point"},
				},
			},
			{
				ID:          uuid.New(),
				Name:        "Los Angeles",
				Description: "End of the coastal run.",
				Type:        domain.WaypointEnd,
				Hotels:      []domain.Hotel{},
			},
		},
	}
}

func TestTripRepo_CreateAndGet(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := coastTrip()
	created, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, input.ID, created.ID)
	assert.Equal(t, input.Name, created.Name)
	assert.False(t, created.CreatedAt.IsZero(), "CreatedAt should be set by DB")
	assert.False(t, created.UpdatedAt.IsZero(), "UpdatedAt should be set by DB")

	got, err := r.GetByID(ctx, input.ID)
	require.NoError(t, err)

	require.Len(t, got.Waypoints, 3)
	assert.Equal(t, "San Francisco", got.Waypoints[0].Name)
	assert.Equal(t, domain.WaypointStart, got.Waypoints[0].Type)
	assert.Equal(t, domain.WaypointEnd, got.Waypoints[2].Type)

	require.Len(t, got.Waypoints[1].Hotels, 1)
	assert.Equal(t, "Ragged Point Inn", got.Waypoints[1].Hotels[0].Name)
	assert.Empty(t, got.Waypoints[0].Hotels, "waypoints without hotels load as empty, not nil")
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestTripRepo(t)

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_List_paginates(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := r.Create(ctx, coastTrip())
		require.NoError(t, err)
	}

	page := 1
	limit := 2
	trips, total, err := r.List(ctx, domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.Len(t, trips, 2)
	assert.GreaterOrEqual(t, total, int64(3))
	for _, trip := range trips {
		assert.NotNil(t, trip.Waypoints, "listed trips load with waypoints attached")
	}
}

func TestTripRepo_Update_replacesItinerary(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, coastTrip())
	require.NoError(t, err)

	// Drop the middle stop and rename the trip; the remaining waypoints keep
	// their IDs.
	updated := created
	updated.Name = "Express Coast"
	updated.Waypoints = []domain.Waypoint{created.Waypoints[0], created.Waypoints[2]}

	_, err = r.Update(ctx, updated)
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Express Coast", got.Name)
	require.Len(t, got.Waypoints, 2)
	assert.Equal(t, created.Waypoints[0].ID, got.Waypoints[0].ID)
	assert.Equal(t, created.Waypoints[2].ID, got.Waypoints[1].ID)
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	r := newTestTripRepo(t)

	ghost := coastTrip()
	_, err := r.Update(context.Background(), ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, coastTrip())
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, created.ID))

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "waypoints and hotels cascade with the trip")
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	r := newTestTripRepo(t)

	err := r.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
