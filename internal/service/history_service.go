package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/cache"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/metrics"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/repository"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
	"golang.org/x/sync/singleflight"
)

const (
	MinHistoryLimit = 1
	MaxHistoryLimit = 100
)

type historyServiceImpl struct {
	repo     repository.MessageRepository
	cache    cache.HistoryCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	sf       singleflight.Group
}

// NewHistoryService creates a HistoryService. msgCache may be nil.
func NewHistoryService(
	repo repository.MessageRepository,
	msgCache cache.HistoryCache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
) HistoryService {
	return &historyServiceImpl{
		repo:     repo,
		cache:    msgCache,
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	if limit < MinHistoryLimit {
		return MinHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func (s *historyServiceImpl) Append(ctx context.Context, msg *domain.Message) error {
	if err := s.repo.Append(ctx, msg); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, msg.RoomID); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldRoomID, msg.RoomID).Msg("cache invalidate error")
		}
	}
	return nil
}

func (s *historyServiceImpl) Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	limit = ClampLimit(limit)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, roomID, limit)
		if err == nil {
			s.metrics.HistoryRead("cache")
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("cache get error")
		}
	}

	// Collapse concurrent misses for the same page into one store read.
	key := fmt.Sprintf("%s:%d", roomID, limit)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, roomID, limit)
	})
	if err != nil {
		s.metrics.HistoryRead("error")
		return nil, err
	}

	messages, ok := result.([]domain.Message)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}

	// Callers sharing a flight each get their own slice.
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (s *historyServiceImpl) fetch(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	messages, err := s.repo.Recent(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from repository: %w", err)
	}
	s.metrics.HistoryRead("store")

	if s.cache != nil {
		// Store in cache (async to avoid blocking response)
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.cache.Set(cacheCtx, roomID, limit, messages, s.cacheTTL); err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("cache set error")
			}
		}()
	}

	return messages, nil
}
