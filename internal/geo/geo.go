// Package geo maintains the spatial index used for nearby-user queries.
package geo

import (
	"context"
)

// Member is one index entry returned from a radius search, ordered by
// ascending distance from the search origin.
type Member struct {
	UserId     int
	DistanceKm float64
}

type LocationIndex interface {
	// Update writes the user's current position to the index.
	Update(ctx context.Context, userId int, lat, lng float64) error
	// Search returns users within radiusKm of the origin, nearest first.
	Search(ctx context.Context, lat, lng, radiusKm float64) ([]Member, error)
}
