package handler_test

import (
	"context"
	"time"

	"textbookexchange/backend/internal/models"
	"textbookexchange/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

var _ storage.Storage = (*MockStorage)(nil)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockStorage) DeleteUser(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) UserExists(ctx context.Context, email, username string) (bool, error) {
	args := m.Called(ctx, email, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) MarkUserVerified(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) AddUserRole(ctx context.Context, email, role string) error {
	return m.Called(ctx, email, role).Error(0)
}

func (m *MockStorage) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockStorage) FindBetween(ctx context.Context, userA, userB uint) ([]models.ChatMessage, error) {
	args := m.Called(ctx, userA, userB)
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) FindReceivedBy(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) CreateListing(ctx context.Context, listing *models.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockStorage) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockStorage) SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockStorage) ListingsByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockStorage) UpdateListing(ctx context.Context, listing *models.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockStorage) DeleteListing(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) SaveVerificationToken(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	return m.Called(ctx, token, userID, ttl).Error(0)
}

func (m *MockStorage) ConsumeVerificationToken(ctx context.Context, token string) (uint, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uint), args.Error(1)
}
