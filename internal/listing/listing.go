// Package listing manages textbook listings and who may change them.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// Store is the subset of storage.Storage the listing service needs.
type Store interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id uint) (*models.Listing, error)
	SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	ListingsByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error)
	UpdateListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, id uint) error
}

// CourseCodeTag is the validator tag checking course codes such as
// "CS 101" or "MATH2040A". Codes are checked in their stored, upper-cased form.
const CourseCodeTag = "coursecode"

var courseCodePattern = regexp.MustCompile(`^[A-Z]{2,4} ?[0-9]{3,4}[A-Z]?$`)

// RegisterValidators installs the listing specific validation tags on v.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation(CourseCodeTag, func(fl validator.FieldLevel) bool {
		return courseCodePattern.MatchString(normalizeCourseCode(fl.Field().String()))
	})
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create stores a new listing owned by owner.
func (s *Service) Create(ctx context.Context, owner *models.User, req models.ListingRequest) (*models.Listing, error) {
	if owner == nil {
		return nil, apperr.ErrUnauthenticated
	}
	l := &models.Listing{OwnerID: owner.ID, PostedAt: s.now().UTC()}
	req.Apply(l)
	l.CourseCode = normalizeCourseCode(l.CourseCode)

	if err := s.store.CreateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	l.Owner = *owner
	s.log.Info("Listing created", "listing_id", l.ID, "owner_id", owner.ID)
	return l, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Listing, error) {
	return s.store.GetListing(ctx, id)
}

// Search returns the listings matching filter. Empty filters match
// everything.
func (s *Service) Search(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperr.Validation("minPrice must not exceed maxPrice")
	}
	return s.store.SearchListings(ctx, filter)
}

// Mine returns the listings posted by owner.
func (s *Service) Mine(ctx context.Context, owner *models.User) ([]models.Listing, error) {
	if owner == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return s.store.ListingsByOwner(ctx, owner.ID)
}

// Update overwrites the editable fields of listing id.
func (s *Service) Update(ctx context.Context, caller *models.User, id uint, req models.ListingRequest) (*models.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, l); err != nil {
		return nil, err
	}

	req.Apply(l)
	l.CourseCode = normalizeCourseCode(l.CourseCode)
	if err := s.store.UpdateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, caller *models.User, id uint) error {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(caller, l); err != nil {
		return err
	}
	if err := s.store.DeleteListing(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	s.log.Info("Listing deleted", "listing_id", id, "by", caller.ID)
	return nil
}

// authorize lets the owner and admins modify a listing.
func authorize(caller *models.User, l *models.Listing) error {
	if caller == nil {
		return apperr.ErrUnauthenticated
	}
	if caller.ID == l.OwnerID || caller.HasRole(models.RoleAdmin) {
		return nil
	}
	return apperr.ErrForbidden
}
