package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// ExperienceRepo defines read access to the experience catalog.
// The catalog is written by a separate back-office system; this API only
// searches it and checks tier availability for the booking lifecycle.
type ExperienceRepo interface {
	// GetByID retrieves a single experience with its live tiers.
	// Returns domain.ErrNotFound if no experience with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Experience, error)

	// Search returns one page of experiences matching the filters, plus the
	// total match count for pagination.
	Search(ctx context.Context, f domain.Filters, p domain.PaginationParams) ([]domain.Experience, int64, error)

	// IsTierActive reports whether the named tier exists on the experience
	// and the experience is currently available for booking.
	IsTierActive(ctx context.Context, experienceID uuid.UUID, tierName string) (bool, error)
}

// pgExperienceRepo is the Postgres implementation of ExperienceRepo.
type pgExperienceRepo struct {
	db db
}

// NewExperienceRepo constructs an ExperienceRepo backed by the provided db
// connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx.
func NewExperienceRepo(db db) ExperienceRepo {
	return &pgExperienceRepo{db: db}
}

func (r *pgExperienceRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Experience, error) {
	const q = `
		SELECT id, title, description, image, average_rating, is_available, duration, tags, location
		FROM experiences
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	exp, err := scanExperience(row)
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.GetByID: %w", err)
	}

	tiers, err := loadTiers(ctx, r.db, []uuid.UUID{id})
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.GetByID: %w", err)
	}
	exp.Tiers = tiers[id]
	if exp.Tiers == nil {
		exp.Tiers = []domain.TierInfo{}
	}
	return exp, nil
}

func (r *pgExperienceRepo) Search(ctx context.Context, f domain.Filters, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	where, args := searchConditions(f)

	var total int64
	countQ := `SELECT count(*) FROM experiences e` + where
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.Search: count: %w", err)
	}

	q := `
		SELECT e.id, e.title, e.description, e.image, e.average_rating, e.is_available, e.duration, e.tags, e.location
		FROM experiences e` + where + `
		ORDER BY e.average_rating DESC, e.title
		LIMIT @limit OFFSET @offset`
	args["limit"] = p.Limit
	args["offset"] = p.Offset()

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.Search: %w", err)
	}
	defer rows.Close()

	var exps []domain.Experience
	var ids []uuid.UUID
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ExperienceRepo.Search: scan: %w", err)
		}
		exps = append(exps, exp)
		ids = append(ids, exp.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.Search: rows: %w", err)
	}

	tiers, err := loadTiers(ctx, r.db, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.Search: %w", err)
	}
	for i := range exps {
		exps[i].Tiers = tiers[exps[i].ID]
		if exps[i].Tiers == nil {
			exps[i].Tiers = []domain.TierInfo{}
		}
	}

	return exps, total, nil
}

func (r *pgExperienceRepo) IsTierActive(ctx context.Context, experienceID uuid.UUID, tierName string) (bool, error) {
	const q = `
		SELECT e.is_available
		FROM experiences e
		JOIN tiers t ON t.experience_id = e.id
		WHERE e.id = @id AND t.name = @name`

	var available bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": experienceID, "name": tierName}).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		// Tier or experience gone — a definitive "no", not a lookup failure.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repo.ExperienceRepo.IsTierActive: %w", err)
	}
	return available, nil
}

// searchConditions translates Filters into a WHERE clause and named args.
// An empty Filters produces no WHERE clause at all.
func searchConditions(f domain.Filters) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}

	if f.IsAvailable != nil {
		conds = append(conds, "e.is_available = @is_available")
		args["is_available"] = *f.IsAvailable
	}
	if f.MinDuration != nil {
		conds = append(conds, "e.duration >= @min_duration")
		args["min_duration"] = *f.MinDuration
	}
	if f.MaxDuration != nil {
		conds = append(conds, "e.duration <= @max_duration")
		args["max_duration"] = *f.MaxDuration
	}
	if len(f.Tags) > 0 {
		// overlap: at least one requested tag present
		conds = append(conds, "e.tags && @tags")
		args["tags"] = f.Tags
	}
	if len(f.Locations) > 0 {
		conds = append(conds, "e.location = ANY(@locations)")
		args["locations"] = f.Locations
	}
	if f.MinPrice != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM tiers t WHERE t.experience_id = e.id AND t.price >= @min_price)")
		args["min_price"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM tiers t WHERE t.experience_id = e.id AND t.price <= @max_price)")
		args["max_price"] = *f.MaxPrice
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\n\t\tWHERE " + strings.Join(conds, "\n\t\tAND "), args
}

// loadTiers fetches the live tiers for a set of experiences, keyed by
// experience ID and ordered by price ascending.
func loadTiers(ctx context.Context, db db, ids []uuid.UUID) (map[uuid.UUID][]domain.TierInfo, error) {
	result := make(map[uuid.UUID][]domain.TierInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	const q = `
		SELECT experience_id, name, price, members, description
		FROM tiers
		WHERE experience_id = ANY(@ids)
		ORDER BY experience_id, price`

	rows, err := db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expID uuid.UUID
			t     domain.TierInfo
		)
		if err := rows.Scan(&expID, &t.Name, &t.Price, &t.Members, &t.Description); err != nil {
			return nil, fmt.Errorf("load tiers: scan: %w", err)
		}
		result[expID] = append(result[expID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tiers: rows: %w", err)
	}

	return result, nil
}

// scanExperience maps an experiences-table row into a domain.Experience
// (without tiers). A missing row becomes domain.ErrNotFound.
func scanExperience(s scanner) (domain.Experience, error) {
	var e domain.Experience
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Image, &e.AverageRating, &e.IsAvailable, &e.Duration, &e.Tags, &e.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Experience{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Experience{}, err
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e, nil
}
