package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/config"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

// RedisHistoryCache stores one hash per room whose fields are page limits,
// so a single DEL invalidates the room.
type RedisHistoryCache struct {
	client *redis.Client
	prefix string
}

func NewRedisHistoryCache(cfg config.RedisConfig, prefix string) (*RedisHistoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisHistoryCache{client: client, prefix: prefix}, nil
}

func (c *RedisHistoryCache) BuildKey(roomID string) string {
	return buildKey(c.prefix, roomID)
}

func buildKey(prefix, roomID string) string {
	return fmt.Sprintf("%s:%s", prefix, roomID)
}

func (c *RedisHistoryCache) Get(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	data, err := c.client.HGet(ctx, c.BuildKey(roomID), strconv.Itoa(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return decodePage(data)
}

func (c *RedisHistoryCache) Set(ctx context.Context, roomID string, limit int, messages []domain.Message, ttl time.Duration) error {
	data, err := encodePage(messages)
	if err != nil {
		return err
	}

	key := c.BuildKey(roomID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(limit), data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisHistoryCache) Invalidate(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, c.BuildKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate redis key: %w", err)
	}
	return nil
}

func (c *RedisHistoryCache) Close() error {
	return c.client.Close()
}

func encodePage(messages []domain.Message) ([]byte, error) {
	if messages == nil {
		messages = []domain.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache data: %w", err)
	}
	return data, nil
}

func decodePage(data []byte) ([]domain.Message, error) {
	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return messages, nil
}
