package database

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockUserRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockUserRepository) UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockUserRepository) GetAccountById(ctx context.Context, userId int) (User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockUserRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockUserRepository) UpdateLocation(ctx context.Context, userId int, lat, lng float64, lastLogin time.Time) error {
	args := m.Called(ctx, userId, lat, lng, lastLogin)
	return args.Error(0)
}
func (m *MockUserRepository) GetUsersByIds(ctx context.Context, ids []int) ([]User, error) {
	args := m.Called(ctx, ids)
	if users, ok := args.Get(0).([]User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockUserRepository) ListActiveUsers(ctx context.Context, excludeId int) ([]User, error) {
	args := m.Called(ctx, excludeId)
	if users, ok := args.Get(0).([]User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}
