package storage

import (
	"context"
	"strings"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Service) CreateListing(ctx context.Context, listing *models.Listing) error {
	if err := s.DB.WithContext(ctx).Omit("Owner").Create(listing).Error; err != nil {
		return translate(err, "listing")
	}
	return nil
}

// GetListing loads a listing together with its owner.
func (s *Service) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := s.DB.WithContext(ctx).Preload("Owner").First(&listing, id).Error; err != nil {
		return nil, translate(err, "listing")
	}
	return &listing, nil
}

// SearchListings applies every non-empty filter: Query matches titles or
// course codes and Course matches course codes, both case-insensitively
// and by substring. Condition is compared case-insensitively, prices are
// inclusive bounds. Newest first.
func (s *Service) SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	listings := []models.Listing{}
	tx := s.DB.WithContext(ctx).Preload("Owner")
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		tx = tx.Where("title ILIKE ? OR course_code ILIKE ?", pattern, pattern)
	}
	if c := strings.TrimSpace(filter.Course); c != "" {
		tx = tx.Where("course_code ILIKE ?", "%"+likeEscaper.Replace(c)+"%")
	}
	if cond := strings.TrimSpace(filter.Condition); cond != "" {
		tx = tx.Where("LOWER(condition) = LOWER(?)", cond)
	}
	if filter.MinPrice != nil {
		tx = tx.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		tx = tx.Where("price <= ?", *filter.MaxPrice)
	}
	if err := tx.Order("posted_at desc, id desc").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ListingsByOwner returns the listings posted by ownerID, newest first.
func (s *Service) ListingsByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := s.DB.WithContext(ctx).Preload("Owner").
		Where("owner_id = ?", ownerID).
		Order("posted_at desc, id desc").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// UpdateListing writes every editable column of listing.
func (s *Service) UpdateListing(ctx context.Context, listing *models.Listing) error {
	res := s.DB.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", listing.ID).
		Select("title", "author", "isbn", "course_code", "price", "condition", "description").
		Updates(listing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("listing")
	}
	return nil
}

func (s *Service) DeleteListing(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Listing{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("listing")
	}
	return nil
}
