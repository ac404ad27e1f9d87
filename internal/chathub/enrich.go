package chathub

import (
	"context"
	"log/slog"

	"textbookexchange/backend/internal/models"

	"github.com/samber/lo"
)

// UserFinder resolves users by id for display names.
type UserFinder interface {
	FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

// ResolveSenderNames maps every id to a display name. Ids that cannot be
// resolved, including on lookup failure, map to models.UnknownSender.
func ResolveSenderNames(ctx context.Context, users UserFinder, log *slog.Logger, ids []uint) map[uint]string {
	ids = lo.Uniq(ids)
	names := lo.SliceToMap(ids, func(id uint) (uint, string) {
		return id, models.UnknownSender
	})
	if len(ids) == 0 {
		return names
	}

	found, err := users.FindUsersByIDs(ctx, ids)
	if err != nil {
		log.Warn("Sender lookup failed", "ids", ids, "error", err)
		return names
	}
	for _, u := range found {
		if name := u.DisplayName(); name != "" {
			names[u.ID] = name
		}
	}
	return names
}

// EnrichMessages turns stored messages into DTOs carrying sender names,
// keeping their order. The result is never nil.
func EnrichMessages(ctx context.Context, users UserFinder, log *slog.Logger, msgs []models.ChatMessage) []models.MessageDTO {
	senders := lo.Map(msgs, func(m models.ChatMessage, _ int) uint { return m.SenderID })
	names := ResolveSenderNames(ctx, users, log, senders)
	return lo.Map(msgs, func(m models.ChatMessage, _ int) models.MessageDTO {
		return models.ToMessageDTO(m, names[m.SenderID])
	})
}
