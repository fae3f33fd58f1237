package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// TripRepo defines the persistence operations for trip aggregates.
// A trip is stored across three tables (trips, waypoints, hotels) but is
// always written and read as a whole: waypoint order is the itinerary.
type TripRepo interface {
	// Create inserts a trip with all its waypoints and hotels in one
	// transaction and returns the persisted record.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a full trip aggregate by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns one page of trips (newest first) with waypoints loaded,
	// plus the total trip count for pagination.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update overwrites the trip's name and replaces its entire waypoint
	// sequence in one transaction. Waypoint and hotel rows keep the IDs
	// supplied by the caller, so identities survive edits.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip and (via FK cascade) its waypoints and hotels.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO trips (id, name)
		VALUES (@id, @name)
		RETURNING id, name, created_at, updated_at`

	row := tx.QueryRow(ctx, q, pgx.NamedArgs{"id": trip.ID, "name": trip.Name})
	result, err := scanTripRow(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	if err := insertWaypoints(ctx, tx, result.ID, trip.Waypoints); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	result.Waypoints = trip.Waypoints

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: commit: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT id, name, created_at, updated_at
		FROM trips
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	trip, err := scanTripRow(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}

	waypoints, err := loadWaypoints(ctx, r.db, []uuid.UUID{id})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	trip.Waypoints = waypoints[id]
	if trip.Waypoints == nil {
		trip.Waypoints = []domain.Waypoint{}
	}
	return trip, nil
}

func (r *pgTripRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `SELECT count(*) FROM trips`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: count: %w", err)
	}

	const q = `
		SELECT id, name, created_at, updated_at
		FROM trips
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	var ids []uuid.UUID
	for rows.Next() {
		t, err := scanTripRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}

	waypoints, err := loadWaypoints(ctx, r.db, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	for i := range trips {
		trips[i].Waypoints = waypoints[trips[i].ID]
		if trips[i].Waypoints == nil {
			trips[i].Waypoints = []domain.Waypoint{}
		}
	}

	return trips, total, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		UPDATE trips
		SET name = @name, updated_at = now()
		WHERE id = @id
		RETURNING id, name, created_at, updated_at`

	row := tx.QueryRow(ctx, q, pgx.NamedArgs{"id": trip.ID, "name": trip.Name})
	result, err := scanTripRow(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}

	// Replace the whole itinerary. Waypoints carry caller-supplied IDs, so
	// re-inserting preserves identity; hotel rows cascade with the delete.
	const del = `DELETE FROM waypoints WHERE trip_id = @trip_id`
	if _, err := tx.Exec(ctx, del, pgx.NamedArgs{"trip_id": trip.ID}); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: clear waypoints: %w", err)
	}
	if err := insertWaypoints(ctx, tx, trip.ID, trip.Waypoints); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	result.Waypoints = trip.Waypoints

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: commit: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// insertWaypoints writes the waypoint sequence (and nested hotels) for a
// trip. Position columns record itinerary order explicitly so reads never
// depend on insertion order.
func insertWaypoints(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, wps []domain.Waypoint) error {
	const wq = `
		INSERT INTO waypoints (id, trip_id, position, name, description, type, image_url)
		VALUES (@id, @trip_id, @position, @name, @description, @type, @image_url)`
	const hq = `
		INSERT INTO hotels (id, waypoint_id, position, name, details_link, location_link)
		VALUES (@id, @waypoint_id, @position, @name, @details_link, @location_link)`

	for i, wp := range wps {
		args := pgx.NamedArgs{
			"id":          wp.ID,
			"trip_id":     tripID,
			"position":    i,
			"name":        wp.Name,
			"description": wp.Description,
			"type":        string(wp.Type),
			"image_url":   wp.ImageURL,
		}
		if _, err := tx.Exec(ctx, wq, args); err != nil {
			return fmt.Errorf("insert waypoint %d: %w", i, err)
		}

		for j, h := range wp.Hotels {
			hargs := pgx.NamedArgs{
				"id":            h.ID,
				"waypoint_id":   wp.ID,
				"position":      j,
				"name":          h.Name,
				"details_link":  h.DetailsLink,
				"location_link": h.LocationLink,
			}
			if _, err := tx.Exec(ctx, hq, hargs); err != nil {
				return fmt.Errorf("insert hotel %d of waypoint %d: %w", j, i, err)
			}
		}
	}
	return nil
}

// loadWaypoints fetches the ordered waypoints (with hotels) for a set of
// trips in two queries, keyed by trip ID.
func loadWaypoints(ctx context.Context, db db, tripIDs []uuid.UUID) (map[uuid.UUID][]domain.Waypoint, error) {
	result := make(map[uuid.UUID][]domain.Waypoint, len(tripIDs))
	if len(tripIDs) == 0 {
		return result, nil
	}

	const wq = `
		SELECT id, trip_id, name, description, type, image_url
		FROM waypoints
		WHERE trip_id = ANY(@trip_ids)
		ORDER BY trip_id, position`

	rows, err := db.Query(ctx, wq, pgx.NamedArgs{"trip_ids": tripIDs})
	if err != nil {
		return nil, fmt.Errorf("load waypoints: %w", err)
	}
	defer rows.Close()

	// index of each waypoint within its trip, for hotel attachment below
	type wpRef struct {
		tripID uuid.UUID
		index  int
	}
	refs := make(map[uuid.UUID]wpRef)

	for rows.Next() {
		var (
			wp     domain.Waypoint
			tripID uuid.UUID
			typ    string
		)
		if err := rows.Scan(&wp.ID, &tripID, &wp.Name, &wp.Description, &typ, &wp.ImageURL); err != nil {
			return nil, fmt.Errorf("load waypoints: scan: %w", err)
		}
		// The type column carries a CHECK constraint, so this only fails if
		// the schema and the enum drift apart.
		wp.Type, err = domain.ParseWaypointType(typ)
		if err != nil {
			return nil, fmt.Errorf("load waypoints: %w", err)
		}
		wp.Hotels = []domain.Hotel{}
		refs[wp.ID] = wpRef{tripID: tripID, index: len(result[tripID])}
		result[tripID] = append(result[tripID], wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load waypoints: rows: %w", err)
	}

	const hq = `
		SELECT h.id, h.waypoint_id, h.name, h.details_link, h.location_link
		FROM hotels h
		JOIN waypoints w ON w.id = h.waypoint_id
		WHERE w.trip_id = ANY(@trip_ids)
		ORDER BY h.waypoint_id, h.position`

	hrows, err := db.Query(ctx, hq, pgx.NamedArgs{"trip_ids": tripIDs})
	if err != nil {
		return nil, fmt.Errorf("load hotels: %w", err)
	}
	defer hrows.Close()

	for hrows.Next() {
		var (
			h          domain.Hotel
			id         uuid.UUID
			waypointID uuid.UUID
		)
		if err := hrows.Scan(&id, &waypointID, &h.Name, &h.DetailsLink, &h.LocationLink); err != nil {
			return nil, fmt.Errorf("load hotels: scan: %w", err)
		}
		h.ID = &id

		ref, ok := refs[waypointID]
		if !ok {
			continue
		}
		wps := result[ref.tripID]
		wps[ref.index].Hotels = append(wps[ref.index].Hotels, h)
	}
	if err := hrows.Err(); err != nil {
		return nil, fmt.Errorf("load hotels: rows: %w", err)
	}

	return result, nil
}

// scanTripRow maps a trips-table row into a domain.Trip (without waypoints).
// A missing row becomes domain.ErrNotFound.
func scanTripRow(s scanner) (domain.Trip, error) {
	var t domain.Trip
	err := s.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Trip{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}
