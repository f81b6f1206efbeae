package geo

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockLocationIndex struct {
	mock.Mock
}

func (m *MockLocationIndex) Update(ctx context.Context, userId int, lat, lng float64) error {
	args := m.Called(ctx, userId, lat, lng)
	return args.Error(0)
}
func (m *MockLocationIndex) Search(ctx context.Context, lat, lng, radiusKm float64) ([]Member, error) {
	args := m.Called(ctx, lat, lng, radiusKm)
	if members, ok := args.Get(0).([]Member); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}
