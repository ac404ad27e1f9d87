package storage

import (
	"context"

	"textbookexchange/backend/internal/models"
)

const chronological = "sent_at asc, id asc"

// SaveMessage inserts msg. The database assigns msg.ID; the timestamp is
// expected to be set by the caller.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

// FindBetween returns the messages exchanged in both directions between two
// users, oldest first.
func (s *Service) FindBetween(ctx context.Context, userA, userB uint) ([]models.ChatMessage, error) {
	history := []models.ChatMessage{}
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order(chronological).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

// FindReceivedBy returns every message addressed to userID, oldest first.
func (s *Service) FindReceivedBy(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	received := []models.ChatMessage{}
	err := s.DB.WithContext(ctx).
		Where("receiver_id = ?", userID).
		Order(chronological).
		Find(&received).Error
	if err != nil {
		return nil, err
	}
	return received, nil
}
