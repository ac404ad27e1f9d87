// Package storage persists accounts, listings and chat messages in
// PostgreSQL through GORM, and short-lived verification tokens in Redis.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	MarkUserVerified(ctx context.Context, id uint) error
	AddUserRole(ctx context.Context, email, role string) error
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Chat messages
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	FindBetween(ctx context.Context, userA, userB uint) ([]models.ChatMessage, error)
	FindReceivedBy(ctx context.Context, userID uint) ([]models.ChatMessage, error)

	// Listings
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id uint) (*models.Listing, error)
	SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	ListingsByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error)
	UpdateListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, id uint) error

	// Verification tokens
	SaveVerificationToken(ctx context.Context, token string, userID uint, ttl time.Duration) error
	ConsumeVerificationToken(ctx context.Context, token string) (uint, error)
}

var _ Storage = (*Service)(nil)

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates every table owned by the service.
func (s *Service) Migrate() error {
	if err := s.DB.AutoMigrate(
		&models.User{},
		&models.ChatMessage{},
		&models.Listing{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// translate maps driver errors onto the apperr taxonomy.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %w", resource, apperr.ErrConflict)
	default:
		return err
	}
}
