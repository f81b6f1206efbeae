package geo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const locationKey = "nearchat:locations"

// RedisLocationIndex stores user positions in a Redis GEO set.
type RedisLocationIndex struct {
	client *redis.Client
}

func NewRedisLocationIndex(client *redis.Client) *RedisLocationIndex {
	return &RedisLocationIndex{client: client}
}

func (idx *RedisLocationIndex) Update(ctx context.Context, userId int, lat, lng float64) error {
	err := idx.client.GeoAdd(ctx, locationKey, &redis.GeoLocation{
		Name:      strconv.Itoa(userId),
		Latitude:  lat,
		Longitude: lng,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd: %w", err)
	}

	return nil
}

func (idx *RedisLocationIndex) Search(ctx context.Context, lat, lng, radiusKm float64) ([]Member, error) {
	locs, err := idx.client.GeoSearchLocation(ctx, locationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Latitude:   lat,
			Longitude:  lng,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geosearch: %w", err)
	}

	members := make([]Member, 0, len(locs))
	for _, loc := range locs {
		id, err := strconv.Atoi(loc.Name)
		if err != nil {
			// not one of ours, skip
			continue
		}
		members = append(members, Member{UserId: id, DistanceKm: loc.Dist})
	}

	return members, nil
}

