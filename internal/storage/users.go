package storage

import (
	"context"
	"time"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/models"

	"github.com/lib/pq"
)

// CreateUser inserts user and fills its ID. A taken e-mail or username
// yields apperr.ErrConflict.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.DB.WithContext(ctx).Create(user).Error, "user")
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// FindUsersByIDs loads every user in ids in one query. Unknown ids are
// simply absent from the result.
func (s *Service) FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UserExists reports whether an account already uses email or username.
func (s *Service) UserExists(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) MarkUserVerified(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// AddUserRole grants role to the user with email. Granting a role twice is
// a no-op.
func (s *Service) AddUserRole(ctx context.Context, email, role string) error {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.HasRole(role) {
		return nil
	}
	roles := append(pq.StringArray{}, user.Roles...)
	roles = append(roles, role)
	return s.DB.WithContext(ctx).Model(user).Update("roles", roles).Error
}

// DeleteUnverifiedBefore removes accounts that were never verified and were
// created before cutoff. It returns the number of deleted rows.
func (s *Service) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("verified = ? AND created_at < ?", false, cutoff).
		Delete(&models.User{})
	return res.RowsAffected, res.Error
}

// DeleteUser removes the account with id. Deleting an unknown id is a no-op.
func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Delete(&models.User{}, id).Error
}
