package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// HistoryCache holds recent-history pages keyed by room and limit.
type HistoryCache interface {
	Get(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
	Set(ctx context.Context, roomID string, limit int, messages []domain.Message, ttl time.Duration) error
	// Invalidate drops every cached page of roomID.
	Invalidate(ctx context.Context, roomID string) error
	Close() error
}
