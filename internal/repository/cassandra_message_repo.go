package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/config"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

const (
	insertMessageQuery = `
		INSERT INTO messages_by_room (
			room_id, message_id, user_id, username, content,
			moderation_status, moderation_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	recentMessagesQuery = `
		SELECT message_id, user_id, username, room_id, content,
			moderation_status, moderation_reason, created_at
		FROM messages_by_room
		WHERE room_id = ?
		ORDER BY message_id DESC
		LIMIT ?`
)

// CassandraMessageRepository stores messages in messages_by_room, which is
// partitioned by room_id and clustered by message_id DESC. Message ids are
// ULIDs, so clustering order is time order.
type CassandraMessageRepository struct {
	session *gocql.Session
}

func NewCassandraMessageRepository(cfg config.CassandraConfig) (*CassandraMessageRepository, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = parseConsistency(cfg.Consistency)
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	if cfg.Username != "" && cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        2 * time.Second,
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &CassandraMessageRepository{session: session}, nil
}

func (r *CassandraMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	err := r.session.Query(insertMessageQuery,
		msg.RoomID,
		msg.MessageID,
		msg.UserID,
		msg.Username,
		msg.Text,
		string(msg.ModerationStatus),
		msg.ModerationReason,
		msg.Timestamp,
	).WithContext(ctx).Exec()
	if err != nil {
		return storageErr("append", err)
	}
	return nil
}

func (r *CassandraMessageRepository) Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}

	iter := r.session.Query(recentMessagesQuery, roomID, limit).WithContext(ctx).Iter()

	messages := make([]domain.Message, 0, limit)
	var (
		msg       domain.Message
		status    string
		createdAt time.Time
	)
	for iter.Scan(
		&msg.MessageID,
		&msg.UserID,
		&msg.Username,
		&msg.RoomID,
		&msg.Text,
		&status,
		&msg.ModerationReason,
		&createdAt,
	) {
		msg.ModerationStatus = domain.ModerationStatus(status)
		msg.Timestamp = createdAt.UTC()
		messages = append(messages, msg)
		msg = domain.Message{}
	}

	if err := iter.Close(); err != nil {
		return nil, storageErr("recent", err)
	}

	// Newest first from the clustering order; callers want oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *CassandraMessageRepository) Close() error {
	r.session.Close()
	return nil
}

// parseConsistency converts a string consistency level to gocql.Consistency.
func parseConsistency(s string) gocql.Consistency {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ANY":
		return gocql.Any
	case "ONE":
		return gocql.One
	case "TWO":
		return gocql.Two
	case "QUORUM":
		return gocql.Quorum
	case "ALL":
		return gocql.All
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "EACH_QUORUM":
		return gocql.EachQuorum
	default:
		return gocql.LocalOne
	}
}
