// Package proximity answers nearby- and global-user queries over the
// spatial index and the user store.
package proximity

import (
	"context"
	"fmt"
	"log"

	"github.com/nearchat/nearchat/internal/database"
	"github.com/nearchat/nearchat/internal/geo"
	"github.com/nearchat/nearchat/internal/types"
)

// MaxRadiusKm caps the search radius of a nearby query.
const MaxRadiusKm = 50

// PresenceChecker reports whether a user currently has at least one
// live connection.
type PresenceChecker interface {
	IsOnline(userId int) bool
}

type Service struct {
	log      *log.Logger
	db       database.UserRepository
	index    geo.LocationIndex
	presence PresenceChecker
}

func NewService(logger *log.Logger, db database.UserRepository, index geo.LocationIndex, presence PresenceChecker) *Service {
	return &Service{
		log:      logger,
		db:       db,
		index:    index,
		presence: presence,
	}
}

// Nearby returns users within radiusKm of the given coordinate, nearest
// first. The requester, inactive users and users with a never-set
// coordinate are excluded. A nonempty interest filter keeps only users
// whose interest set intersects it.
func (s *Service) Nearby(ctx context.Context, requesterId int, lat, lng, radiusKm float64, interests []string) ([]types.UserSummary, error) {
	if radiusKm > MaxRadiusKm {
		radiusKm = MaxRadiusKm
	}

	members, err := s.index.Search(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	distances := make(map[int]float64, len(members))
	ids := make([]int, 0, len(members))
	for _, m := range members {
		if m.UserId == requesterId {
			continue
		}
		distances[m.UserId] = m.DistanceKm
		ids = append(ids, m.UserId)
	}

	users, err := s.db.GetUsersByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	summaries := make([]types.UserSummary, 0, len(users))
	for _, u := range users {
		if !s.includeUser(u, interests) {
			continue
		}

		summaries = append(summaries, s.summarize(u, distances[u.Id]))
	}

	return summaries, nil
}

// Global returns every active user except the requester, subject to the
// same coordinate and interest exclusions as Nearby.
func (s *Service) Global(ctx context.Context, requesterId int, interests []string) ([]types.UserSummary, error) {
	users, err := s.db.ListActiveUsers(ctx, requesterId)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	summaries := make([]types.UserSummary, 0, len(users))
	for _, u := range users {
		if !s.includeUser(u, interests) {
			continue
		}

		summaries = append(summaries, s.summarize(u, 0))
	}

	return summaries, nil
}

func (s *Service) includeUser(u database.User, interests []string) bool {
	if !u.Active {
		return false
	}

	coord := types.Coordinate{Latitude: u.Latitude, Longitude: u.Longitude}
	if coord.IsUnset() {
		return false
	}

	return len(interests) == 0 || intersects(u.Interests, interests)
}

func (s *Service) summarize(u database.User, distanceKm float64) types.UserSummary {
	return types.UserSummary{
		Id:         u.Id,
		Username:   u.Username,
		Interests:  u.Interests,
		Latitude:   u.Latitude,
		Longitude:  u.Longitude,
		DistanceKm: distanceKm,
		IsOnline:   s.presence.IsOnline(u.Id),
	}
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}

	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}

	return false
}
