package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"textbookexchange/backend/internal/apperr"

	"github.com/redis/go-redis/v9"
)

const verificationPrefix = "verify:"

// SaveVerificationToken stores token -> userID in Redis. The key disappears
// on its own once ttl elapses.
func (s *Service) SaveVerificationToken(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	return s.Redis.Set(ctx, verificationPrefix+token, strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

// ConsumeVerificationToken atomically reads and deletes token. Unknown or
// expired tokens yield apperr.ErrNotFound.
func (s *Service) ConsumeVerificationToken(ctx context.Context, token string) (uint, error) {
	raw, err := s.Redis.GetDel(ctx, verificationPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, apperr.NotFound("verification token")
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
