package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Experience is a bookable activity from the catalog.
// The catalog is an external collaborator from the booking lifecycle's point
// of view: bookings reference experiences by ID but never own them.
type Experience struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Image         string     `json:"image,omitempty"`
	AverageRating float64    `json:"averageRating"`
	IsAvailable   bool       `json:"isAvailable"`
	Duration      int        `json:"duration"` // duration in days
	Tags          []string   `json:"tags"`
	Location      string     `json:"location"`
	Tiers         []TierInfo `json:"tier"`
}

// TierInfo is one live purchasable tier of an experience.
// A booking's Tier is a snapshot of this, not a reference.
type TierInfo struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Members     int     `json:"members"`
	Description string  `json:"description,omitempty"`
}

// FindTier returns the tier with the given name, if present.
func (e Experience) FindTier(name string) (TierInfo, bool) {
	for _, t := range e.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return TierInfo{}, false
}

// Filters narrows an experience search. It is a value object with no
// persistent identity; nil pointer fields mean "no constraint".
type Filters struct {
	IsAvailable *bool
	MinPrice    *float64
	MaxPrice    *float64
	MinDuration *int
	MaxDuration *int
	Tags        []string
	Locations   []string
}

// Validate checks the only invariants Filters carries: that each min/max
// pair is a well-formed range. Returns an error wrapping ErrValidation.
func (f Filters) Validate() error {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("%w: minPrice must not exceed maxPrice", ErrValidation)
	}
	if f.MinDuration != nil && f.MaxDuration != nil && *f.MinDuration > *f.MaxDuration {
		return fmt.Errorf("%w: minDuration must not exceed maxDuration", ErrValidation)
	}
	return nil
}
